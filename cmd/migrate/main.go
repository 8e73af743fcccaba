package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"livepoll/config"
	"livepoll/internal/repository"
	"livepoll/pkg/database"
)

const usage = `
Live Poll - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply all pending migrations
  down        Roll back every migration (DANGEROUS)
  status      Show migration version and ledger tables
  seed        Create the sample accounts and polls (idempotent)
  reset       Roll back, re-apply and seed (DANGEROUS)
  truncate    Remove every poll, option and vote (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	databaseURL := database.URL(cfg)

	switch command {
	case "up":
		runMigrationsUp(databaseURL)
	case "down":
		runMigrationsDown(databaseURL)
	case "status":
		connect(cfg)
		defer database.Close()
		showStatus(databaseURL)
	case "seed":
		connect(cfg)
		defer database.Close()
		runSeed(cfg)
	case "reset":
		runMigrationsDown(databaseURL)
		runMigrationsUp(databaseURL)
		connect(cfg)
		defer database.Close()
		runSeed(cfg)
	case "truncate":
		connect(cfg)
		defer database.Close()
		runTruncate()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func connect(cfg *config.Config) {
	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
}

func runMigrationsUp(databaseURL string) {
	log.Println("Running migrations UP...")

	if err := database.MigrateUp(databaseURL); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func runMigrationsDown(databaseURL string) {
	log.Println("Rolling back migrations...")

	if err := database.MigrateDown(databaseURL); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}

	log.Println("Rollback completed successfully")
}

func showStatus(databaseURL string) {
	log.Println("Checking database status...")

	ctx := context.Background()
	if err := database.Ping(ctx); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	version, dirty, err := database.MigrationVersion(databaseURL)
	if err != nil {
		log.Printf("Could not read migration version: %v", err)
	} else {
		log.Printf("Migration version: %d (dirty: %t)", version, dirty)
	}

	for _, table := range database.LedgerTables {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.GetTableCount(table)
			log.Printf("Table %-14s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-14s does not exist", table)
		}
	}

	if err := database.HealthCheck(ctx); err != nil {
		log.Printf("Health check warning: %v", err)
	} else {
		log.Println("Health check: PASSED")
	}
}

func runSeed(cfg *config.Config) {
	log.Println("Seeding sample accounts and polls...")

	ctx := context.Background()
	store := repository.NewPostgresStore(database.DB, cfg.DBLockTimeout)
	accounts, err := database.SeedUsers(ctx, store.Users(), nil)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	for _, u := range accounts {
		log.Printf("   - %s <%s> (%s)", u.Name, u.Email, u.Role)
	}

	created, err := database.Seed(ctx, store.Polls(), nil, database.AdminOf(accounts))
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	for _, d := range created {
		log.Printf("   - %s (%d options, %s)", d.Poll.Question, len(d.Options), d.Poll.Status)
	}
	log.Println("Seeding completed")
}

func runTruncate() {
	log.Println("WARNING: This will TRUNCATE the vote ledger!")

	if err := database.TruncateLedger(); err != nil {
		log.Fatalf("Truncate failed: %v", err)
	}

	log.Println("Ledger truncated")
}
