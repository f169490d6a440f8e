package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
	"github.com/trezcool/ptemanager/storage/database"
	pgdb "github.com/trezcool/ptemanager/storage/database/postgres"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	os.Exit(run(os.Args))
}

func run(args []string) int {
	conf, err := core.LoadConfig()
	if err != nil {
		logger.Printf("error: %s\n", err)
		return 1
	}
	ctx := context.Background()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	cli := commandLine{validate: validate}

	// migrations manage the schema themselves: do not auto-migrate
	if len(args) > 1 && args[1] == "migrate" {
		if conf.Database.Engine() == database.EnginePostgres {
			db, err := pgdb.Open(ctx, conf)
			if err != nil {
				logger.Printf("error: %s\n", err)
				return 1
			}
			defer db.Close()
			cli.db = db.DB
		}
	} else {
		repos, err := database.Open(ctx, conf)
		if err != nil {
			logger.Printf("error: %s\n", err)
			return 1
		}
		defer repos.Close()
		cli.usrSvc = user.NewService(repos.Users, nil /* no mails */, nil /* no revocations */)
	}

	if err = cli.run(args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s\n", err)
		}
		return 1
	}
	return 0
}
