package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/stats"
)

type dashboardApi struct {
	svc *stats.Service
}

func registerDashboardAPI(g *echo.Group, authed, _ echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{svc: deps.StatsSvc}

	g.GET("/dashboard/stats", api.stats, authed)
}

// stats returns the counts relevant to the caller's role.
func (api *dashboardApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsAdmin() {
		st, err := api.svc.Admin(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "computing admin stats")
		}
		return ctx.JSON(http.StatusOK, st)
	}
	st, err := api.svc.Student(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return errors.Wrap(err, "computing student stats")
	}
	return ctx.JSON(http.StatusOK, st)
}
