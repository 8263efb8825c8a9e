package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/config"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/internal/repository"
	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/database"

	"github.com/joho/godotenv"
)

const usage = `
CribOps CDN Kit - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply the ledger schema
  status      Show database connection and table status

Examples:
  go run cmd/migrate/main.go up
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

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer pool.Close()

	switch flag.Arg(0) {
	case "up":
		log.Println("🚀 Applying schema...")
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		log.Println("✅ Schema applied successfully!")
	case "status":
		log.Println("✅ Database connection: OK")
		for _, table := range []string{"attachments", "synced_items"} {
			exists, err := repository.TableExists(ctx, pool, table)
			if err != nil {
				log.Printf("⚠️  Error checking table %s: %v", table, err)
				continue
			}
			if !exists {
				log.Printf("❌ Table %-15s does not exist", table)
				continue
			}
			count, _ := repository.TableCount(ctx, pool, table)
			log.Printf("✅ Table %-15s exists (%d rows)", table, count)
		}
	default:
		fmt.Printf("Unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
