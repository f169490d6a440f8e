package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/ptemanager/apps/api/echo"
	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/auth"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/core/stats"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
	emailsvc "github.com/trezcool/ptemanager/services/email"
	"github.com/trezcool/ptemanager/services/filestore"
	logsvc "github.com/trezcool/ptemanager/services/logger"
	"github.com/trezcool/ptemanager/services/revocation"
	"github.com/trezcool/ptemanager/storage/database"
)

const dialTimeout = 10 * time.Second

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger(conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && !conf.TestMode && conf.RollbarToken != "")
	return logger
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (
	*database.Repositories,
	user.Repository,
	task.Repository,
	submission.Repository,
	material.Repository,
) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	repos, err := database.Open(ctx, conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repos, repos.Users, repos.Tasks, repos.Submissions, repos.Materials
}

// newRevocations uses redis when REDIS_URL is set, memory otherwise.
func newRevocations(conf *core.Config, logger core.Logger) auth.Revocations {
	if conf.Redis.URL == "" {
		return revocation.NewMemStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	client, err := revocation.Dial(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up token revocations: %v", err), err)
	}
	return revocation.NewRedisStore(client, conf)
}

func newTokenRevoker(revs auth.Revocations) user.TokenRevoker {
	return revs
}

func newFileService(conf *core.Config, logger core.Logger) *files.Service {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	svc, err := filestore.NewService(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}
	return svc
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	task.InitValidators(validate, translator)
	return validate
}

func newTaskService(repo task.Repository, usrSvc *user.Service, subs submission.Repository) *task.Service {
	return task.NewService(repo, usrSvc, subs)
}

func newSubmissionService(
	repo submission.Repository,
	taskSvc *task.Service,
	usrSvc *user.Service,
	mailSvc core.EmailService,
) *submission.Service {
	return submission.NewService(repo, taskSvc, usrSvc, mailSvc)
}

func newStatsService(usrSvc *user.Service, taskSvc *task.Service, subSvc *submission.Service) *stats.Service {
	return stats.NewService(usrSvc, taskSvc, subSvc)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newRevocations))
	must(c.Provide(newTokenRevoker))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newFileService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(auth.NewTokenService))
	must(c.Provide(user.NewService))
	must(c.Provide(newTaskService))
	must(c.Provide(newSubmissionService))
	must(c.Provide(material.NewService))
	must(c.Provide(newStatsService))
	must(c.Provide(newRegistry))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
