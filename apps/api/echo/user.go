package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/auth"
	"github.com/trezcool/ptemanager/core/user"
)

var (
	errRegisterRequired  = echo.NewHTTPError(http.StatusBadRequest, "Name, email, and password are required")
	errLoginRequired     = echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	msgAdminOnlyCreate   = "Only existing admins can create teacher accounts"
	errEmailExists       = echo.NewHTTPError(http.StatusConflict, "User already exists with this email")
	errBadCredentials    = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errDeactivated       = echo.NewHTTPError(http.StatusForbidden, "Account is deactivated")
	errAdminExists       = echo.NewHTTPError(http.StatusConflict, "Default admin already exists")
	errSeedNotConfigured = echo.NewHTTPError(http.StatusBadRequest, "Default admin credentials are not configured")
	errSelfDeactivation  = echo.NewHTTPError(http.StatusBadRequest, "You cannot deactivate your own account")
	errIsActiveRequired  = echo.NewHTTPError(http.StatusBadRequest, "isActive is required")
)

type (
	AuthResponse struct {
		Token string       `json:"token"`
		User  user.Summary `json:"user"`
	}

	setActiveRequest struct {
		IsActive *bool `json:"isActive"`
	}
)

type userApi struct {
	conf       *core.Config
	svc        *user.Service
	tokens     *auth.TokenService
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		conf:       deps.Conf,
		svc:        deps.UserSvc,
		tokens:     deps.Tokens,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	// un-authed endpoints
	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/seed-admin", api.seedAdmin)

	ug := g.Group("/users", authed, admin)
	ug.GET("", api.listStudents)
	ug.GET("/teachers", api.listAdmins)
	ug.PATCH("/:id", api.setActive)
}

// Handlers

// checkAdminCreator allows creating admins to admin bearers only.
func (api *userApi) checkAdminCreator(ctx echo.Context) error {
	token := auth.ExtractFromHeader(ctx.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, msgAdminOnlyCreate)
	}
	claims, err := api.tokens.Verify(ctx.Request().Context(), token)
	if err != nil {
		if err == auth.ErrInvalidToken || err == auth.ErrTokenRevoked {
			return echo.NewHTTPError(http.StatusForbidden, msgAdminOnlyCreate)
		}
		return errors.Wrap(err, "verifying token")
	}
	if !claims.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, msgAdminOnlyCreate)
	}
	return nil
}

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if !data.HasRequired() {
		return errRegisterRequired
	}
	if core.CleanString(data.Role, true /* lower */) == user.RoleAdmin {
		if err := api.checkAdminCreator(ctx); err != nil {
			return err
		}
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		if err == user.ErrEmailExists {
			return errEmailExists
		}
		return errors.Wrap(err, "registering user")
	}

	if usr.IsAdmin() {
		return ctx.JSON(http.StatusCreated, echo.Map{
			"message": "Teacher account created successfully",
			"user":    usr.Summary(),
		})
	}
	token, err := api.tokens.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(http.StatusCreated, AuthResponse{Token: token, User: usr.Summary()})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if core.CleanString(data.Email) == "" || data.Password == "" {
		return errLoginRequired
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		switch err {
		case user.ErrInvalidCredentials:
			return errBadCredentials
		case user.ErrAccountDeactivated:
			return errDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}
	return ctx.JSON(http.StatusOK, AuthResponse{Token: token, User: usr.Summary()})
}

func (api *userApi) seedAdmin(ctx echo.Context) error {
	usr, err := api.svc.SeedAdmin(ctx.Request().Context(), api.conf.Seed)
	if err != nil {
		switch err {
		case user.ErrAdminExists:
			return errAdminExists
		case user.ErrSeedNotConfigured:
			return errSeedNotConfigured
		}
		return errors.Wrap(err, "seeding admin")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": "Default admin created successfully",
		"admin":   usr.Summary(),
	})
}

func (api *userApi) listStudents(ctx echo.Context) error {
	users, err := api.svc.ListStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) listAdmins(ctx echo.Context) error {
	users, err := api.svc.ListAdmins(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing admins")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) setActive(ctx echo.Context) error {
	id := core.CleanString(ctx.Param("id"), true /* lower */)
	if !core.ValidID(id) {
		return errInvalidUserID
	}
	var data setActiveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to setActiveRequest")
	}
	if data.IsActive == nil {
		return errIsActiveRequired
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	usr, err := api.svc.SetActive(ctx.Request().Context(), claims.UserID, id, *data.IsActive)
	if err != nil {
		switch err {
		case user.ErrNotFound:
			return errUserNotFound
		case user.ErrSelfDeactivation:
			return errSelfDeactivation
		}
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}
