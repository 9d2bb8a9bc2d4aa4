package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/core/session"
)

// maxRedirects bounds how many guard redirects `open` follows.
const maxRedirects = 3

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp             = errors.New("help provided")
	errPasswordMismatch = errors.New("passwords do not match")
)

type commandLine struct {
	mgr   *session.Manager
	guard *session.Guard
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  login -email EMAIL - log in; the password is prompted next")
	_, _ = fmt.Fprintln(cli.out, "  logout - log out")
	_, _ = fmt.Fprintln(cli.out, "  whoami - print the active session")
	_, _ = fmt.Fprintln(cli.out, "  recover -email EMAIL - send a password recovery code")
	_, _ = fmt.Fprintln(cli.out, "  recover-confirm -email EMAIL -code CODE - set a new password; it is prompted next")
	_, _ = fmt.Fprintln(cli.out, "  open -path PATH - print the screen PATH resolves to")
	_, _ = fmt.Fprintln(cli.out, "  routes [-role ROLE] - list the portal routes")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := cli.newFlagSet("login")
	loginEmail := loginCmd.String("email", "", "The account's email. The password will be prompted next.")

	recoverCmd := cli.newFlagSet("recover")
	recoverEmail := recoverCmd.String("email", "", "The account's email.")

	confirmCmd := cli.newFlagSet("recover-confirm")
	confirmEmail := confirmCmd.String("email", "", "The account's email.")
	confirmCode := confirmCmd.String("code", "", "The recovery code received by email.")

	openCmd := cli.newFlagSet("open")
	openPath := openCmd.String("path", "/", "The route to open.")

	routesCmd := cli.newFlagSet("routes")
	routesRole := routesCmd.String("role", "", "Only list the routes of this role (parent, teacher, admin, driver).")

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("Password:")
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginEmail, pwd)

	case "logout":
		cli.mgr.Logout(ctx)
		return nil

	case "whoami":
		cli.whoami(ctx)
		return nil

	case "recover":
		if err := recoverCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recoverEmail == "" {
			recoverCmd.Usage()
			return errHelp
		}
		return cli.mgr.RequestPasswordRecovery(ctx, *recoverEmail)

	case "recover-confirm":
		if err := confirmCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *confirmEmail == "" || *confirmCode == "" {
			confirmCmd.Usage()
			return errHelp
		}
		pwd, err := cli.prompt("New password:")
		if err != nil {
			return err
		}
		confirm, err := cli.prompt("Confirm new password:")
		if err != nil {
			return err
		}
		if pwd != confirm {
			return errPasswordMismatch
		}
		return cli.mgr.CompletePasswordRecovery(ctx, *confirmEmail, *confirmCode, pwd)

	case "open":
		if err := openCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.open(ctx, *openPath)

	case "routes":
		if err := routesCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.routes(session.Role(*routesRole))

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(cli.out, label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	return string(pwd), err
}

func (cli *commandLine) login(ctx context.Context, email, pwd string) error {
	sess, err := cli.mgr.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	return cli.open(ctx, session.DashboardPath(sess.Role))
}

func (cli *commandLine) whoami(ctx context.Context) {
	cli.mgr.Init(ctx)
	sess, ok := cli.mgr.ActiveSession()
	if !ok {
		_, _ = fmt.Fprintln(cli.out, "Not logged in")
		return
	}
	_, _ = fmt.Fprintf(cli.out, "%s <%s>\nrole: %s\nid:   %s\n", sess.Name, sess.Email, sess.Role.DisplayName(), sess.ID)
}

func (cli *commandLine) open(ctx context.Context, path string) error {
	cli.mgr.Init(ctx)

	for i := 0; i <= maxRedirects; i++ {
		dec := cli.guard.Resolve(path)
		switch dec.Kind {
		case session.Allow:
			_, _ = fmt.Fprintf(cli.out, "%s -> %s\n", dec.Route.Path, dec.Route.Screen)
			return nil
		case session.Redirect:
			_, _ = fmt.Fprintf(cli.out, "%s redirected to %s\n", path, dec.Target)
			path = dec.Target
		default:
			return fmt.Errorf("%s: %s", path, dec.Kind)
		}
	}
	return fmt.Errorf("%s: too many redirects", path)
}

func (cli *commandLine) routes(role session.Role) error {
	if role != "" && !role.IsValid() {
		return fmt.Errorf("%q: no such role", role)
	}
	for _, r := range session.Routes() {
		if role != "" && r.Role != role {
			continue
		}
		_, _ = fmt.Fprintf(cli.out, "%-28s %s\n", r.Path, r.Screen)
	}
	return nil
}
