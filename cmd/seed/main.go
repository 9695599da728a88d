package main

import (
	"context"
	"log"
	"os"

	"commerce-pricing/internal/config"
	"commerce-pricing/internal/db"
	"commerce-pricing/internal/seed"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
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

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	if cfg.CatalogBackend == "mongo" {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Fatalf("connect mongo: %v", err)
		}
		defer client.Disconnect(context.Background())

		if err := seed.ApplyMongo(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			logger.Fatalf("seed mongo: %v", err)
		}
		logger.Printf("mongo catalog seeded in %s", cfg.MongoDatabase)
	}

	logger.Printf("seed applied, demo customer %s", seed.DemoEmail)
}
