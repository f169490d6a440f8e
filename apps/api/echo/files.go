package echoapi

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/files"
)

const uploadField = "file"

var (
	errNoFileUploaded = echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	errFileTooLarge   = echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large")
)

type fileApi struct {
	svc *files.Service
}

func registerFileAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := fileApi{svc: deps.FileSvc}

	g.POST("/upload", api.upload(files.FolderSubmissions), authed)
	g.POST("/upload-material", api.upload(files.FolderMaterials), authed, admin)
	g.GET("/download/:filename", api.download)
}

func openUploads(headers []*multipart.FileHeader, folder string) ([]files.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]files.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, errors.Wrapf(err, "opening upload %q", fh.Filename)
		}
		opened = append(opened, f)
		uploads = append(uploads, files.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
			Folder:      folder,
		})
	}
	return uploads, closeAll, nil
}

// Handlers

func (api *fileApi) upload(folder string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		form, err := ctx.MultipartForm()
		if err != nil || len(form.File[uploadField]) == 0 {
			return errNoFileUploaded
		}
		uploads, closeAll, err := openUploads(form.File[uploadField], folder)
		if err != nil {
			return err
		}
		defer closeAll()

		descs, err := api.svc.Save(ctx.Request().Context(), uploads...)
		if err != nil {
			switch errors.Cause(err) {
			case files.ErrNoFiles:
				return errNoFileUploaded
			case files.ErrTooLarge:
				return errFileTooLarge
			}
			return errors.Wrap(err, "saving uploads")
		}
		return ctx.JSON(http.StatusCreated, descs)
	}
}

// download streams a stored file, or redirects to its external location.
func (api *fileApi) download(ctx echo.Context) error {
	filename := ctx.Param("filename")

	rc, err := api.svc.Open(ctx.Request().Context(), filename)
	switch err {
	case nil:
		defer rc.Close()
		name := ctx.QueryParam("originalName")
		if name == "" {
			name = filename
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(name))
		return ctx.Stream(http.StatusOK, files.ContentTypeFor(filename), rc)
	case files.ErrNotFound:
	default:
		return errors.Wrap(err, "opening download")
	}

	if raw := ctx.QueryParam("url"); raw != "" {
		attachment, _ := strconv.ParseBool(ctx.QueryParam("attachment"))
		if target, ok := api.svc.RedirectURL(raw, attachment); ok {
			return ctx.Redirect(http.StatusFound, target)
		}
	}
	return errFileNotFound
}

func contentDisposition(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	return fmt.Sprintf(`inline; filename="%s"`, name)
}
