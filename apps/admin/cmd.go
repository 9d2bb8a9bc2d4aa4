package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	validate   *validator.Validate
	translator ut.Translator

	accSvc     account.Service
	openAccSvc func() (account.Service, error) // lazy, migrations run without an account service
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-inactive] - create an account; the password is prompted next")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset an account's password; the password is prompted next")
	_, _ = fmt.Fprintln(cli.out, "  migrate up|down [-steps N] - apply all pending migrations, or roll back the last N")
}

func (cli *commandLine) accounts() (account.Service, error) {
	if cli.accSvc == nil {
		svc, err := cli.openAccSvc()
		if err != nil {
			return nil, err
		}
		cli.accSvc = svc
	}
	return cli.accSvc, nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserName := addUserCmd.String("name", "", "The account holder's name.")
	addUserEmail := addUserCmd.String("email", "", "The account's email. Its role is derived from it.")
	addUserInactive := addUserCmd.Bool("inactive", false, "Create the account deactivated.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The account's email. The password will be prompted next.")

	migrateCmd := flag.NewFlagSet("migrate", flag.ContinueOnError)
	migrateCmd.SetOutput(cli.out)
	migrateSteps := migrateCmd.Int("steps", 1, "Number of migrations to roll back (down only).")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserEmail, pwd, confirm, !*addUserInactive)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd, confirm)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if err := migrateCmd.Parse(args[3:]); err != nil {
			return err
		}
		return cli.migrate(args[2], *migrateSteps)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (pwd, confirm string, err error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	p, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil || len(p) == 0 {
		return "", "", err
	}

	_, _ = fmt.Fprint(cli.out, "Confirm password:")
	c, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	return string(p), string(c), nil
}

// explain turns validation errors into a readable error.
func (cli *commandLine) explain(err error) error {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return fmt.Errorf("invalid data: %v", core.TranslateErrors(vErrs, cli.translator))
	}
	return err
}
