package main

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/iota-uz/docflow/pkg/configuration"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	conf := configuration.Use()
	db, err := sql.Open("postgres", conf.Database.Opts)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set dialect: %v", err)
	}

	switch command {
	case "up":
		err = goose.Up(db, conf.MigrationsDir)
	case "down":
		err = goose.Down(db, conf.MigrationsDir)
	case "status":
		err = goose.Status(db, conf.MigrationsDir)
	case "redo":
		err = goose.Redo(db, conf.MigrationsDir)
	default:
		log.Fatalf("unknown command %q (want up, down, status or redo)", command)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", command, err)
	}
}
