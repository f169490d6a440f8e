package main

import (
	"context"

	"github.com/trezcool/ptemanager/core/user"
)

// addUser updates or creates an active user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	if cli.usrSvc == nil {
		return errUserService
	}
	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: user.RoleStudent}
	if isAdmin {
		nu.Role = user.RoleAdmin
	}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}
	_, err := cli.usrSvc.Save(context.Background(), nu)
	return err
}
