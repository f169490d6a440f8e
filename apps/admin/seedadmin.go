package main

import (
	"context"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
)

// seedAdmin creates an admin account, unless one with this email exists.
func (cli *commandLine) seedAdmin(name, email, pwd string) error {
	if cli.usrSvc == nil {
		return errUserService
	}
	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: user.RoleAdmin}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	_, err := cli.usrSvc.SeedAdmin(context.Background(), core.SeedAdminConfig{
		Name:     nu.Name,
		Email:    nu.Email,
		Password: pwd,
	})
	return err
}
