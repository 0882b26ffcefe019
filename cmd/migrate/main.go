package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"rent_bot/migrations"
)

var commands = []struct {
	name  string
	usage string
	run   func(db *sql.DB) error
}{
	{"up", "Migrate to the latest version", func(db *sql.DB) error { return goose.Up(db, ".") }},
	{"up-one", "Migrate one version up", func(db *sql.DB) error { return goose.UpByOne(db, ".") }},
	{"down", "Roll back one version", func(db *sql.DB) error { return goose.Down(db, ".") }},
	{"status", "Show migration status", func(db *sql.DB) error { return goose.Status(db, ".") }},
	{"version", "Show current version", func(db *sql.DB) error { return goose.Version(db, ".") }},
	{"reset", "Roll back all migrations", func(db *sql.DB) error { return goose.Reset(db, ".") }},
}

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "path to sqlite database")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	name := args[0]
	var run func(db *sql.DB) error
	for _, c := range commands {
		if c.name == name {
			run = c.run
		}
	}
	if run == nil {
		log.Fatalf("unknown command: %s", name)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		log.Fatalf("setup migrations: %v", err)
	}
	if err := run(db); err != nil {
		log.Fatalf("%s: %v", name, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [-db path] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s  %s\n", c.name, c.usage)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
