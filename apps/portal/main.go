package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/services/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "PORTAL : ", log.LstdFlags), conf)

	code := run(ctx, conf, logger)
	logger.Close()
	stop()
	os.Exit(code)
}

func run(ctx context.Context, conf *core.Config, logger *logsvc.RollbarLogger) int {
	store, closeStore, err := newStore(ctx, conf)
	if err != nil {
		logger.Error(fmt.Sprintf("opening session store: %v", err), err)
		return 1
	}
	defer closeStore()

	backend, err := newBackend(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up backend: %v", err), err)
		return 1
	}

	mgr := session.NewManager(session.ManagerDeps{
		Store:    store,
		Backend:  backend,
		Notifier: newNotifier(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), logger),
		Logger:   logger,
	})
	cli := commandLine{
		mgr:   mgr,
		guard: session.NewGuard(mgr),
		out:   os.Stdout,
	}

	if err = cli.run(ctx, os.Args); err != nil {
		if err != errHelp && !announced(err) {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

// announced reports whether err was already shown to the user as a notification.
func announced(err error) bool {
	var (
		authErr     *session.AuthenticationError
		requestErr  *session.RecoveryRequestError
		completeErr *session.RecoveryCompletionError
	)
	return errors.As(err, &authErr) || errors.As(err, &requestErr) || errors.As(err, &completeErr)
}
