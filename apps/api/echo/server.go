package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/auth"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/core/stats"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

type (
	ServerDeps struct {
		dig.In

		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		Registry      *prometheus.Registry `optional:"true"`
		Tokens        *auth.TokenService
		UserSvc       *user.Service
		TaskSvc       *task.Service
		SubmissionSvc *submission.Service
		MaterialSvc   *material.Service
		FileSvc       *files.Service
		StatsSvc      *stats.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	reg := s.deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s.app.Use(newMetricsMiddleware(reg))
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	s.app.GET("/", home)

	g := s.app.Group("/api")
	authed := authMiddleware(s.deps.Tokens)
	admin := adminMiddleware()

	registerUserAPI(g, authed, admin, s.deps)
	registerTaskAPI(g, authed, admin, s.deps)
	registerSubmissionAPI(g, authed, admin, s.deps)
	registerMaterialAPI(g, authed, admin, s.deps)
	registerFileAPI(g, authed, admin, s.deps)
	registerDashboardAPI(g, authed, admin, s.deps)
}

// Start blocks serving requests. Failures are reported on Errors().
func (s *Server) Start() {
	s.deps.Logger.Info(fmt.Sprintf("API listening on %s", s.deps.Conf.Server.Host))
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to stop gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to PTE Manager API!")
}
