package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/session"
)

func (cli *commandLine) addUser(name, email, pwd, confirm string, active bool) error {
	ctx := context.Background()
	svc, err := cli.accounts()
	if err != nil {
		return err
	}

	data := account.NewAccount{Name: name, Email: email, Password: pwd, PasswordConfirm: confirm}
	if err = data.Validate(cli.validate, svc); err != nil {
		return cli.explain(err)
	}

	acc, err := svc.Create(ctx, data)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	if !active {
		if acc, err = svc.SetActive(ctx, acc, false); err != nil {
			return errors.Wrap(err, "deactivating account")
		}
	}

	_, _ = fmt.Fprintf(cli.out, "Created %s <%s> (%s, id %s)\n",
		acc.Name, acc.Email, session.DeriveRole(acc.Email).DisplayName(), acc.ID)
	return nil
}
