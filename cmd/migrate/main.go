package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"toolrental-backend/internal/config"
	"toolrental-backend/internal/logger"
	"toolrental-backend/internal/migration"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	steps := flag.Int("steps", 0, "Apply n migrations (negative rolls back); used with 'steps'")
	force := flag.Int("force", -1, "Version to force; used with 'force'")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: migrate [flags] up|down|steps|version|force|list\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		flag.Usage()
		os.Exit(2)
	}

	if command == "list" {
		files, err := migration.Files()
		if err != nil {
			log.Fatalf("Failed to list migrations: %v", err)
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	m, err := migration.New(db)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error("Failed to close migrator", "error", err)
		}
	}()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		if *steps == 0 {
			log.Fatalf("steps requires -steps=n")
		}
		err = m.Steps(*steps)
	case "force":
		if *force < 0 {
			log.Fatalf("force requires -force=version")
		}
		err = m.Force(*force)
	case "version":
		version, dirty, verr := m.Version()
		if verr == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
		err = verr
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Migration command failed", "command", command, "error", err)
		os.Exit(1)
	}
}
