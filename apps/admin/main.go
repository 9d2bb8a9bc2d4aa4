package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds), conf)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator, logger)

	cli := commandLine{
		conf:       conf,
		out:        os.Stdout,
		validate:   validate,
		translator: translator,
	}

	var closeDB func()
	cli.openAccSvc = func() (account.Service, error) {
		mailSvc := emailsvc.NewConsoleService(conf, logger, os.Stdout)
		if conf.Database.Engine == "memory" {
			return account.NewService(inmemdb.NewAccountRepository(inmemdb.Open()), mailSvc, conf), nil
		}

		db, err := database.Open(context.Background(), conf)
		if err != nil {
			return nil, err
		}
		closeDB = func() { _ = db.Close() }
		return account.NewService(sqlxrepos.NewAccountRepository(db), mailSvc, conf), nil
	}

	err := cli.run(os.Args)
	if closeDB != nil {
		closeDB()
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}
