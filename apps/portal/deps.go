package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/services/authbackend/httpapi"
	"github.com/trezcool/shule/services/authbackend/simulated"
	"github.com/trezcool/shule/services/notify"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/sessionstore"
)

const apiTimeout = 10 * time.Second

// newStore opens the configured session store. The returned func releases it.
func newStore(ctx context.Context, conf *core.Config) (session.Store, func(), error) {
	noop := func() {}
	ns := conf.Portal.Context

	switch conf.Portal.SessionStore {
	case "", "file":
		return sessionstore.NewFileStore(conf.Portal.SessionFile, ns), noop, nil
	case "memory":
		return sessionstore.NewMemoryStore(), noop, nil
	case "redis":
		client, err := sessionstore.NewRedisClient(ctx, conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return sessionstore.NewRedisStore(client, ns), func() { _ = client.Close() }, nil
	case "postgres":
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening session database")
		}
		return sessionstore.NewPostgresStore(db, ns), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("%q: unknown session store", conf.Portal.SessionStore)
}

// newNotifier shows notifications on out when it is a terminal, otherwise through the logger.
func newNotifier(out io.Writer, interactive bool, logger core.Logger) core.Notifier {
	if !interactive {
		return notifysvc.NewLoggerNotifier(logger)
	}
	return notifysvc.NewConsoleNotifier(out, false)
}

func newBackend(conf *core.Config) (session.Backend, error) {
	switch conf.Portal.Backend {
	case "", "simulated":
		return simulated.New(simulated.Options{Delay: conf.Portal.SimulatedDelay}), nil
	case "api":
		return httpapi.New(conf.Portal.APIBaseURL, apiTimeout), nil
	}
	return nil, fmt.Errorf("%q: unknown backend", conf.Portal.Backend)
}
