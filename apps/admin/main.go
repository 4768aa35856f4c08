package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/gradebook/apps/shared"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	database.LogMigrationsTo(os.Stdout)

	// the schema is needed by every command but migrate
	if len(os.Args) > 1 && os.Args[1] != "migrate" {
		errAndDie(database.Migrate(context.Background(), db))
	}

	// start CLI
	svcs := shared.NewServices(conf, db)
	cli := commandLine{
		db:     db,
		accSvc: svcs.Accounts,
		grdSvc: svcs.Grades,
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
