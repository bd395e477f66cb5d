package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	if err := cli.usrSvc.ResetPassword(context.Background(), email, pwd); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "password updated for %s\n", email)
	return nil
}
