package main

import (
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/config"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.SetupLogging(cfg.Log)

	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <up|down [steps]|version|force <version>>")
	}

	dsn := cfg.Database.DSN()

	switch os.Args[1] {
	case "up":
		if err := repository.Migrate(dsn); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps <= 0 {
				log.Fatalf("Invalid step count: %s", os.Args[2])
			}
		}
		if err := repository.MigrateDown(dsn, steps); err != nil {
			log.Fatalf("Failed to rollback migrations: %v", err)
		}
		log.WithField("steps", steps).Info("Migrations rolled back")

	case "version":
		version, dirty, err := repository.MigrationVersion(dsn)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("Schema version")

	case "force":
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid version: %v", err)
		}
		if err := repository.ForceVersion(dsn, version); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		log.WithField("version", version).Info("Forced schema version")

	default:
		log.Fatalf("Unknown command: %s", os.Args[1])
	}
}
