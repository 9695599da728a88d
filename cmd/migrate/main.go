package main

import (
	"context"
	"flag"
	"log"
	"os"

	"commerce-pricing/internal/config"
	"commerce-pricing/internal/db"
	"commerce-pricing/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if *down > 0 {
		version, err := migrate.Rollback(ctx, pool, *down)
		if err != nil {
			logger.Fatalf("roll back migrations: %v", err)
		}
		logger.Printf("rolled back %d migration(s), schema version %d", *down, version)
		return
	}

	version, err := migrate.Apply(ctx, pool)
	if err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	logger.Printf("migrations applied, schema version %d", version)
}
