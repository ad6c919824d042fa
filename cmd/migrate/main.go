package main

import (
	"os"
	"strconv"

	"advisor-booking/config"
	"advisor-booking/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

// Usage: migrate [up | down [--steps N] | force <version>]
func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	migrator, err := database.NewMigrator(cfg.DB, log)
	if err != nil {
		log.Fatalf("Failed to initialize migrator: %v", err)
	}
	defer migrator.Close()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down(*steps)
	case "force":
		if flag.NArg() < 2 {
			log.Fatal("force requires a version")
		}
		version, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatalf("Invalid version: %v", convErr)
		}
		err = migrator.Force(version)
	default:
		log.Fatalf("Unknown command %q, use up, down or force", command)
	}

	if err != nil {
		migrator.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	log.Info("Migrations complete")
}
