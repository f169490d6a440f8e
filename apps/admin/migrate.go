package main

import (
	pgdb "github.com/trezcool/ptemanager/storage/database/postgres"
)

var gooseRunFunc = pgdb.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
