package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/task"
)

var (
	errTaskRequired    = echo.NewHTTPError(http.StatusBadRequest, "Title, type, and description are required")
	errTaskIDsRequired = echo.NewHTTPError(http.StatusBadRequest, "Task IDs array is required")
)

type bulkDeleteTasksRequest struct {
	TaskIDs           []string `json:"taskIds"`
	DeleteSubmissions bool     `json:"deleteSubmissions"`
}

type taskApi struct {
	svc      *task.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := taskApi{svc: deps.TaskSvc, validate: deps.Validate}

	tg := g.Group("/tasks", authed)
	tg.GET("", api.list)
	tg.POST("", api.create, admin)
	tg.POST("/bulk-delete", api.bulkDelete, admin)
	tg.PUT("/:id", api.update, admin)
	tg.DELETE("/:id", api.destroy, admin)
}

func taskID(ctx echo.Context) (string, error) {
	id := core.CleanString(ctx.Param("id"), true /* lower */)
	if !core.ValidID(id) {
		return "", errInvalidTaskID
	}
	return id, nil
}

// Handlers

func (api *taskApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	tasks, err := api.svc.List(ctx.Request().Context(), claims.UserID, claims.IsAdmin())
	if err != nil {
		return errors.Wrap(err, "listing tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) bindInput(ctx echo.Context) (task.Input, error) {
	var data task.Input
	if err := ctx.Bind(&data); err != nil {
		return task.Input{}, errors.Wrap(err, "binding to task.Input")
	}
	if !data.HasRequired() {
		return task.Input{}, errTaskRequired
	}
	if err := data.Validate(api.validate); err != nil {
		return task.Input{}, err
	}
	return data, nil
}

func (api *taskApi) create(ctx echo.Context) error {
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Create(ctx.Request().Context(), claims.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindInput(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if err == task.ErrNotFound {
			return errTaskNotFound
		}
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if err == task.ErrNotFound {
			return errTaskNotFound
		}
		return errors.Wrap(err, "deleting task")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Task deleted successfully"})
}

func (api *taskApi) bulkDelete(ctx echo.Context) error {
	var data bulkDeleteTasksRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to bulkDeleteTasksRequest")
	}
	if len(data.TaskIDs) == 0 {
		return errTaskIDsRequired
	}
	data.TaskIDs = core.CleanIDs(data.TaskIDs)
	if invalid := core.InvalidIDs(data.TaskIDs); len(invalid) > 0 {
		return invalidIDsError("Invalid Task ID format", invalid)
	}

	n, err := api.svc.BulkDelete(ctx.Request().Context(), data.TaskIDs, data.DeleteSubmissions)
	if err != nil {
		return errors.Wrap(err, "bulk deleting tasks")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":           "Tasks deleted successfully",
		"deletedCount":      n,
		"deleteSubmissions": data.DeleteSubmissions,
	})
}
