package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/user"
)

// createAdmin creates an admin, or resets the password of the existing one.
func (cli *commandLine) createAdmin(uname, pwd, confirm string) error {
	na := user.NewAdmin{Username: uname, Password: pwd, PasswordConfirm: confirm}
	if err := na.Validate(cli.validate); err != nil {
		return err
	}
	admin, created, err := cli.usrSvc.SaveAdmin(context.Background(), na)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("admin %q created\n", admin.Username)
	} else {
		fmt.Printf("admin %q updated\n", admin.Username)
	}
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd, confirm string) error {
	na := user.NewAdmin{Username: uname, Password: pwd, PasswordConfirm: confirm}
	if err := na.Validate(cli.validate); err != nil {
		return err
	}
	return cli.usrSvc.ResetAdminPassword(context.Background(), na.Username, na.Password)
}
