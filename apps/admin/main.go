package main

import (
	"log"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/mwalimu/darasa/core"
	appfs "github.com/mwalimu/darasa/fs"
	"github.com/mwalimu/darasa/storage/database"
	sqlxrepos "github.com/mwalimu/darasa/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	goose.SetBaseFS(appfs.FS)
	errAndDie(goose.SetDialect("postgres"))

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
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
