package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
	"github.com/trezcool/ptemanager/storage/database/inmem"
	"github.com/trezcool/ptemanager/tests"
)

var usrRepo user.Repository

func TestMain(m *testing.M) {
	user.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func setup(t *testing.T) *commandLine {
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	return &commandLine{
		usrSvc:   user.NewService(usrRepo, nil, nil),
		validate: validate,
		db:       new(sql.DB),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantAnyErr bool
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, after ...func(*testing.T, cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := tt.pwd
		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantAnyErr:
				assert.Error(t, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				require.NoError(t, err)
				for _, fn := range after {
					fn(t, tt)
				}
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "seedadmin: no args", args: []string{"seedadmin"}, wantErr: errHelp},
		{name: "adduser: no email", args: []string{"adduser", "-name", "Amina"}, wantErr: errHelp},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "migrate: no command", args: []string{"migrate"}, wantErr: errHelp},
		{name: "no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errNoPassword},
	}
	runCLITests(t, cli, tests)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	runCLITests(t, cli, tests)

	t.Run("postgres only", func(t *testing.T) {
		cli.db = nil
		assert.Equal(t, errNoDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_seedAdmin(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "weak password", args: []string{"seedadmin", "-email", "head@test.cd"}, pwd: "abc", wantAnyErr: true},
		{name: "created", args: []string{"seedadmin", "-name", "Head Teacher", "-email", "Head@test.cd"}, pwd: "Pr0f-Wanjiku!"},
		{name: "already exists", args: []string{"seedadmin", "-email", "head@test.cd"}, pwd: "Pr0f-Wanjiku!", wantErr: user.ErrAdminExists},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "head@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, "Head Teacher", usr.Name)
		assert.True(t, usr.IsAdmin())
		assert.NoError(t, usr.CheckPassword(tt.pwd))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "student created", args: []string{"adduser", "-name", "Amina", "-email", "amina@test.cd"}, pwd: "Kilimanjaro-42"},
		{name: "promoted to admin", args: []string{"adduser", "-name", "Amina O.", "-email", "amina@test.cd", "-admin"}, pwd: "Serengeti-77"},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		users, err := usrRepo.QueryUsers(context.Background(), user.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, users, 1)
		usr := users[0]
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword(tt.pwd))
		if len(tt.args) == 6 {
			assert.Equal(t, user.RoleAdmin, usr.Role)
			assert.Equal(t, "Amina O.", usr.Name)
		} else {
			assert.Equal(t, user.RoleStudent, usr.Role)
		}
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "Kilimanjaro-42", user.RoleStudent, true)

	tests := []cliTest{
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, pwd: "Serengeti-77", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", " HERO@test.cd"}, pwd: "Serengeti-77"},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword(tt.pwd))
	})
}
