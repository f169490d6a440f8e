package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
)

var (
	errTaskIDRequired        = echo.NewHTTPError(http.StatusBadRequest, "Task ID is required")
	errSubmissionIDsRequired = echo.NewHTTPError(http.StatusBadRequest, "Submission IDs array is required")
	errStudentsOnly          = echo.NewHTTPError(http.StatusForbidden, "Only students can submit tasks")
)

type (
	// pageQuery binds the paging & filtering query parameters of submission listings.
	pageQuery struct {
		Page   int    `query:"page"`
		Limit  int    `query:"limit"`
		Status string `query:"status"`
	}

	bulkDeleteSubmissionsRequest struct {
		SubmissionIDs []string `json:"submissionIds"`
	}

	fileInfo struct {
		SubmissionID string      `json:"submissionId"`
		StudentName  string      `json:"studentName"`
		TaskTitle    string      `json:"taskTitle"`
		Files        interface{} `json:"files"`
	}
)

// bind ignores malformed values, falling back to the defaults.
func (q *pageQuery) bind(ctx echo.Context) (core.Page, submission.Status) {
	_ = echo.QueryParamsBinder(ctx).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("status", &q.Status).
		BindErrors()
	status := submission.Status(core.CleanString(q.Status, true /* lower */))
	if !status.IsValid() {
		status = ""
	}
	return core.NewPage(q.Page, q.Limit), status
}

type submissionApi struct {
	svc      *submission.Service
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := submissionApi{svc: deps.SubmissionSvc, validate: deps.Validate}

	sg := g.Group("/submissions", authed)
	sg.GET("", api.list)
	sg.POST("", api.create)
	sg.GET("/history", api.history)
	sg.POST("/bulk-delete", api.bulkDelete, admin)
	sg.PATCH("/:id", api.review, admin)

	g.GET("/debug/submissions", api.debug, authed, admin)
}

// Handlers

func (api *submissionApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if claims.IsAdmin() {
		return errStudentsOnly
	}

	var data submission.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.Clean()
	if data.TaskID == "" {
		return errTaskIDRequired
	}
	if !core.ValidID(data.TaskID) {
		return errInvalidTaskID
	}

	s, err := api.svc.Create(ctx.Request().Context(), claims.UserID, data)
	if err != nil {
		if err == task.ErrNotFound {
			return errTaskNotFound
		}
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *submissionApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	page, status := new(pageQuery).bind(ctx)
	res, err := api.svc.List(ctx.Request().Context(), claims.UserID, claims.IsAdmin(), status, page)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *submissionApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	page, status := new(pageQuery).bind(ctx)
	res, err := api.svc.History(ctx.Request().Context(), claims.UserID, status, page)
	if err != nil {
		return errors.Wrap(err, "listing submission history")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *submissionApi) review(ctx echo.Context) error {
	id := core.CleanString(ctx.Param("id"), true /* lower */)
	if !core.ValidID(id) {
		return errInvalidSubmissionID
	}
	var data submission.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	s, err := api.svc.Review(ctx.Request().Context(), claims.UserID, id, data)
	if err != nil {
		if err == submission.ErrNotFound {
			return errSubmissionNotFound
		}
		return errors.Wrap(err, "reviewing submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *submissionApi) bulkDelete(ctx echo.Context) error {
	var data bulkDeleteSubmissionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to bulkDeleteSubmissionsRequest")
	}
	if len(data.SubmissionIDs) == 0 {
		return errSubmissionIDsRequired
	}
	data.SubmissionIDs = core.CleanIDs(data.SubmissionIDs)
	if invalid := core.InvalidIDs(data.SubmissionIDs); len(invalid) > 0 {
		return invalidIDsError("Invalid Submission ID format", invalid)
	}

	n, err := api.svc.BulkDelete(ctx.Request().Context(), data.SubmissionIDs)
	if err != nil {
		return errors.Wrap(err, "bulk deleting submissions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":      "Submissions deleted successfully",
		"deletedCount": n,
	})
}

// debug lists the files attached to every submission.
func (api *submissionApi) debug(ctx echo.Context) error {
	subs, err := api.svc.All(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	infos := make([]fileInfo, 0, len(subs))
	for _, s := range subs {
		info := fileInfo{SubmissionID: s.ID, Files: s.Files}
		if s.Student != nil {
			info.StudentName = s.Student.Name
		}
		if s.Task != nil {
			info.TaskTitle = s.Task.Title
		}
		infos = append(infos, info)
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"totalSubmissions": len(subs),
		"fileInfo":         infos,
	})
}
