package main

import (
	"context"

	"github.com/trezcool/ptemanager/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if cli.usrSvc == nil {
		return errUserService
	}
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = cli.validate.Struct(user.ResetPassword{Name: usr.Name, Email: usr.Email, Password: pwd}); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr.Email, pwd)
	return err
}
