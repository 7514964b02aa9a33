package main

import (
	"os"
	"strings"

	"github.com/nimasrn/collections-ledger/internal/config"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/pg"
)

// main.go [migrate|status] --env=.env --dir=./migrations
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	pgConf := config.Get().WriteDB()

	switch command() {
	case "status":
		err = pg.MigrationStatus(pgConf, getMigrationPath())
		if err != nil {
			logger.Error("migration: error reading status", "error", err)
		}
	default:
		err = pg.Migrate(pgConf, getMigrationPath())
		if err != nil {
			logger.Error("migration: error running migrations", "error", err)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func command() string {
	for _, v := range os.Args[1:] {
		if !strings.HasPrefix(v, "--") {
			return v
		}
	}
	return "migrate"
}

func getEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	if _, err := os.Open(".env"); err != nil {
		logger.Error("failed to open the passed env file, got error" + err.Error())
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--dir=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed migration dir, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	if _, err := os.Open("./migrations"); err != nil {
		logger.Error("failed to open the migration dir, got error" + err.Error())
		return ""
	}
	return "./migrations"
}
