package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

func (cli *commandLine) resetPassword(email, pwd, confirm string) error {
	ctx := context.Background()
	svc, err := cli.accounts()
	if err != nil {
		return err
	}

	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	data := account.SetPassword{Password: pwd, PasswordConfirm: confirm}
	if err = data.Validate(cli.validate, acc); err != nil {
		return cli.explain(err)
	}
	if _, err = svc.SetPassword(ctx, acc, data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}

	_, _ = fmt.Fprintf(cli.out, "Password of %s updated\n", acc.Email)
	return nil
}
