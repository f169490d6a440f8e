package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
)

const bearerPrefix = "Bearer "

var (
	NowFunc = time.Now // mockable

	signingMethod = jwt.SigningMethodHS256

	// errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserID         string `json:"userId"`
	Role           string `json:"role"`
	IssuedAtMillis int64  `json:"iatms,omitempty"`
}

func (c Claims) IsAdmin() bool {
	return c.Role == user.RoleAdmin
}

// Revocations stores, per user, the instant before which issued tokens are no longer valid.
type Revocations interface {
	user.TokenRevoker
	RevokedAt(ctx context.Context, userID string) (time.Time, bool, error)
}

type TokenService struct {
	secret      []byte
	ttl         time.Duration
	issuer      string
	revocations Revocations
}

func NewTokenService(conf *core.Config, revocations Revocations) *TokenService {
	return &TokenService{
		secret:      []byte(conf.Auth.Secret),
		ttl:         conf.Auth.JWTExpirationDelta,
		issuer:      conf.AppName,
		revocations: revocations,
	}
}

func (ts *TokenService) claims(usr user.User) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ts.issuer,
			Subject:   usr.ID,
			ExpiresAt: now.Add(ts.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		UserID:         usr.ID,
		Role:           usr.Role,
		IssuedAtMillis: now.UnixNano() / int64(time.Millisecond),
	}
}

// Issue generates a signed JWT for the user.
func (ts *TokenService) Issue(usr user.User) (string, error) {
	return ts.Sign(ts.claims(usr))
}

// Sign signs arbitrary claims with the service key.
func (ts *TokenService) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString(ts.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify checks the token signature, expiry and revocation.
// Any failure yields ErrInvalidToken or ErrTokenRevoked, or the revocation store error.
func (ts *TokenService) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, ErrInvalidToken
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	if ts.revocations != nil {
		revokedAt, ok, err := ts.revocations.RevokedAt(ctx, claims.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "checking token revocation")
		}
		if ok && !ts.issuedAt(claims).After(revokedAt) {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

func (ts *TokenService) issuedAt(c *Claims) time.Time {
	if c.IssuedAtMillis > 0 {
		return time.Unix(0, c.IssuedAtMillis*int64(time.Millisecond))
	}
	return time.Unix(c.IssuedAt, 0)
}

// ExtractFromHeader returns the token of an `Authorization: Bearer <token>` header value, or "".
func ExtractFromHeader(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
