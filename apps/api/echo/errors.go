package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
)

var (
	// auth
	errNoToken      = echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "Unauthorized")

	// not found
	errTaskNotFound       = echo.NewHTTPError(http.StatusNotFound, "Task not found")
	errSubmissionNotFound = echo.NewHTTPError(http.StatusNotFound, "Submission not found")
	errMaterialNotFound   = echo.NewHTTPError(http.StatusNotFound, "Material not found")
	errUserNotFound       = echo.NewHTTPError(http.StatusNotFound, "User not found")
	errFileNotFound       = echo.NewHTTPError(http.StatusNotFound, "File not found")

	// bad ids
	errInvalidTaskID       = echo.NewHTTPError(http.StatusBadRequest, "Invalid Task ID format")
	errInvalidSubmissionID = echo.NewHTTPError(http.StatusBadRequest, "Invalid Submission ID format")
	errInvalidMaterialID   = echo.NewHTTPError(http.StatusBadRequest, "Invalid Material ID format")
	errInvalidUserID       = echo.NewHTTPError(http.StatusBadRequest, "Invalid User ID format")
)

const (
	msgInternalError   = "Internal server error"
	msgValidationError = "Validation failed"
)

// invalidIDsError reports the malformed ids of a bulk request.
func invalidIDsError(msg string, ids []string) error {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": msg, "invalidIds": ids})
}

func fieldErrorsBody(msg string, flds []core.FieldError) echo.Map {
	fldErrs := make(map[string]string, len(flds))
	for _, f := range flds {
		fldErrs[f.Field] = f.Error
	}
	if msg == "" && len(flds) > 0 {
		msg = flds[0].Error
	}
	return echo.Map{"message": msg, "errors": fldErrs}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			body interface{}
		)

		cause := errors.Cause(err)
		// bind errors may carry our own validation errors
		if herr, ok := cause.(*echo.HTTPError); ok {
			if verr, ok := herr.Internal.(*core.ValidationError); ok {
				cause = verr
			}
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				body = echo.Map{"message": msg}
			} else {
				body = origErr.Message
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			body = fieldErrorsBody("", core.TranslateErrors(origErr, translator))
		case *core.ValidationError:
			code = http.StatusBadRequest
			if len(origErr.Fields) > 0 {
				var msg string
				if origErr.Err != nil {
					msg = origErr.Err.Error()
				}
				body = fieldErrorsBody(msg, origErr.Fields)
			} else {
				body = echo.Map{"message": origErr.Error()}
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			body = echo.Map{"message": msgInternalError}

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.UserID
				usr.Role = claims.Role
			}
			logger.Error(msgInternalError, errors.Wrap(err, ctx.Request().Method+" "+ctx.Path()), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				logger.Error("writing error response", err)
			}
		}
	}
}
