package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"commerce-pricing/internal/domain"
	authsvc "commerce-pricing/internal/service/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Demo customer credentials for manual testing.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo-password"
)

// Catalog returns the demo products with their prices.
func Catalog() []domain.Product {
	return []domain.Product{
		{
			ID:          "prod_starter",
			Name:        "Starter",
			Description: "For individuals getting started",
			Active:      true,
			Metadata:    map[string]string{"index": "0"},
			Prices: []domain.Price{
				{ID: "price_starter_month", Currency: "usd", UnitAmount: 1999, Interval: "month", IntervalCount: 1, Active: true},
				{ID: "price_starter_year", Currency: "usd", UnitAmount: 19900, Interval: "year", IntervalCount: 1, Active: true},
			},
		},
		{
			ID:          "prod_team",
			Name:        "Team",
			Description: "Shared workspace for small teams",
			Active:      true,
			Metadata:    map[string]string{"index": "1"},
			Prices: []domain.Price{
				{ID: "price_team_month", Currency: "usd", UnitAmount: 4900, Interval: "month", IntervalCount: 1, TrialPeriodDays: 14, Active: true},
				{ID: "price_team_quarter", Currency: "usd", UnitAmount: 12900, Interval: "month", IntervalCount: 3, TrialPeriodDays: 14, Active: true},
				{ID: "price_team_legacy", Currency: "usd", UnitAmount: 3900, Interval: "month", IntervalCount: 1, Active: false},
			},
		},
		{
			ID:          "prod_lifetime",
			Name:        "Lifetime",
			Description: "One payment, no renewals",
			Active:      true,
			Metadata:    map[string]string{"index": "2"},
			Prices: []domain.Price{
				{ID: "price_lifetime", Currency: "eur", UnitAmount: 29900, Active: true},
			},
		},
		{
			ID:     "prod_retired",
			Name:   "Retired",
			Active: false,
			Prices: []domain.Price{
				{ID: "price_retired_month", Currency: "usd", UnitAmount: 999, Interval: "month", IntervalCount: 1, Active: true},
			},
		},
	}
}

// Apply inserts demo data into Postgres. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range Catalog() {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		for _, price := range p.Prices {
			if err := upsertPrice(ctx, pool, p.ID, price); err != nil {
				return fmt.Errorf("upsert price %s: %w", price.ID, err)
			}
		}
	}
	if err := ensureCustomer(ctx, pool, DemoEmail, DemoPassword, "Demo Customer"); err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p domain.Product) error {
	const q = `
INSERT INTO products (id, active, name, description, image, metadata)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6::jsonb)
ON CONFLICT (id) DO UPDATE
SET active = EXCLUDED.active,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    image = EXCLUDED.image,
    metadata = EXCLUDED.metadata
`
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, q, p.ID, p.Active, p.Name, p.Description, p.Image, string(raw))
	return err
}

func upsertPrice(ctx context.Context, pool *pgxpool.Pool, productID string, p domain.Price) error {
	const q = `
INSERT INTO prices (id, product_id, active, currency, unit_amount, interval, interval_count, trial_period_days)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
ON CONFLICT (id) DO UPDATE
SET product_id = EXCLUDED.product_id,
    active = EXCLUDED.active,
    currency = EXCLUDED.currency,
    unit_amount = EXCLUDED.unit_amount,
    interval = EXCLUDED.interval,
    interval_count = EXCLUDED.interval_count,
    trial_period_days = EXCLUDED.trial_period_days
`
	_, err := pool.Exec(ctx, q, p.ID, productID, p.Active, p.Currency, p.UnitAmount, p.Interval, intervalCount(p), p.TrialPeriodDays)
	return err
}

func ensureCustomer(ctx context.Context, pool *pgxpool.Pool, email, password, fullName string) error {
	const q = `
INSERT INTO customers (email, password_hash, full_name)
VALUES ($1, $2, $3)
ON CONFLICT ((lower(email))) DO UPDATE
SET password_hash = EXCLUDED.password_hash,
    full_name = EXCLUDED.full_name
`
	hash, err := authsvc.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, q, strings.ToLower(email), hash, fullName)
	return err
}

// ApplyMongo writes the demo catalog into the products and prices collections.
func ApplyMongo(ctx context.Context, db *mongo.Database) error {
	products := db.Collection("products")
	prices := db.Collection("prices")
	upsert := options.Replace().SetUpsert(true)

	for _, p := range Catalog() {
		doc := bson.M{
			"_id":    p.ID,
			"name":   p.Name,
			"active": p.Active,
		}
		if p.Description != "" {
			doc["description"] = p.Description
		}
		if p.Image != "" {
			doc["image"] = p.Image
		}
		if len(p.Metadata) > 0 {
			doc["metadata"] = p.Metadata
		}
		if _, err := products.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, upsert); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}

		for _, price := range p.Prices {
			priceDoc := bson.M{
				"_id":               price.ID,
				"product_id":        p.ID,
				"currency":          price.Currency,
				"unit_amount":       price.UnitAmount,
				"interval_count":    intervalCount(price),
				"trial_period_days": price.TrialPeriodDays,
				"active":            price.Active,
			}
			if price.Interval != "" {
				priceDoc["interval"] = price.Interval
			}
			if _, err := prices.ReplaceOne(ctx, bson.M{"_id": price.ID}, priceDoc, upsert); err != nil {
				return fmt.Errorf("upsert price %s: %w", price.ID, err)
			}
		}
	}
	return nil
}

func intervalCount(p domain.Price) int {
	if p.IntervalCount < 1 {
		return 1
	}
	return p.IntervalCount
}
