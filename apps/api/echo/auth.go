package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/auth"
)

const contextClaimsKey = "claims"

// authMiddleware rejects requests without a valid bearer token and stores the claims on the context.
func authMiddleware(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := auth.ExtractFromHeader(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return errNoToken
			}
			claims, err := tokens.Verify(ctx.Request().Context(), token)
			if err != nil {
				if err == auth.ErrInvalidToken || err == auth.ErrTokenRevoked {
					return errInvalidToken
				}
				return errors.Wrap(err, "verifying token")
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// adminMiddleware must run after authMiddleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.IsAdmin() {
				return errForbidden
			}
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*auth.Claims); ok {
		return claims, nil
	}
	return nil, errNoToken
}
