package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/storage/database"
)

var (
	// mockable
	createDBFunc = database.CreateIfNotExist
	migrateFunc  = database.Migrate
	rollbackFunc = database.Rollback
)

func (cli *commandLine) migrate(command string, steps int) error {
	switch command {
	case "up":
		if err := createDBFunc(context.Background(), cli.conf); err != nil {
			return err
		}
		if err := migrateFunc(cli.conf); err != nil {
			return err
		}
	case "down":
		if steps < 1 {
			return fmt.Errorf("steps must be positive (got %d)", steps)
		}
		if err := rollbackFunc(cli.conf, steps); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%q: no such command", command)
	}

	_, _ = fmt.Fprintf(cli.out, "Migrated %s: %s\n", dbName(cli.conf), command)
	return nil
}

func dbName(conf *core.Config) string {
	return conf.Database.Name + "@" + conf.Database.Address()
}
