package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/material"
)

var (
	errMaterialRequired   = echo.NewHTTPError(http.StatusBadRequest, "Title and type are required")
	errMaterialIDRequired = echo.NewHTTPError(http.StatusBadRequest, "Material ID is required")
)

type materialApi struct {
	svc      *material.Service
	validate *validator.Validate
}

func registerMaterialAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := materialApi{svc: deps.MaterialSvc, validate: deps.Validate}

	mg := g.Group("/materials", authed)
	mg.GET("", api.list)
	mg.POST("", api.create, admin)
	// the id is accepted in the path or as the `id` query param
	mg.PUT("", api.update, admin)
	mg.PUT("/:id", api.update, admin)
	mg.DELETE("", api.destroy, admin)
	mg.DELETE("/:id", api.destroy, admin)
}

func materialID(ctx echo.Context) (string, error) {
	id := ctx.Param("id")
	if id == "" {
		id = ctx.QueryParam("id")
	}
	id = core.CleanString(id, true /* lower */)
	if id == "" {
		return "", errMaterialIDRequired
	}
	if !core.ValidID(id) {
		return "", errInvalidMaterialID
	}
	return id, nil
}

// Handlers

func (api *materialApi) list(ctx echo.Context) error {
	mats, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing materials")
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *materialApi) bindInput(ctx echo.Context) (material.Input, error) {
	var data material.Input
	if err := ctx.Bind(&data); err != nil {
		return material.Input{}, errors.Wrap(err, "binding to material.Input")
	}
	if !data.HasRequired() {
		return material.Input{}, errMaterialRequired
	}
	if err := data.Validate(api.validate); err != nil {
		return material.Input{}, err
	}
	return data, nil
}

func (api *materialApi) create(ctx echo.Context) error {
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.Create(ctx.Request().Context(), claims.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *materialApi) update(ctx echo.Context) error {
	id, err := materialID(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	m, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if err == material.ErrNotFound {
			return errMaterialNotFound
		}
		return errors.Wrap(err, "updating material")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	id, err := materialID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if err == material.ErrNotFound {
			return errMaterialNotFound
		}
		return errors.Wrap(err, "deleting material")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Material deleted successfully"})
}
