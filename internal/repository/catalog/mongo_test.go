package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"commerce-pricing/internal/db"
	"commerce-pricing/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongo_ListActiveAndGetPrice(t *testing.T) {
	ctx := context.Background()
	database := testMongo(ctx, t)

	_, err := database.Collection(productsCollection).InsertMany(ctx, []interface{}{
		productDoc{ID: "prod_pro", Name: "Pro", Active: true, Metadata: map[string]string{"index": "2"}},
		productDoc{ID: "prod_basic", Name: "Basic", Active: true, Metadata: map[string]string{"index": "1"}},
		productDoc{ID: "prod_retired", Name: "Retired", Active: false},
	})
	if err != nil {
		t.Fatalf("insert products: %v", err)
	}
	_, err = database.Collection(pricesCollection).InsertMany(ctx, []interface{}{
		priceDoc{ID: "price_basic_year", ProductID: "prod_basic", Currency: "usd", UnitAmount: 19900, Interval: "year", Active: true},
		priceDoc{ID: "price_basic_month", ProductID: "prod_basic", Currency: "usd", UnitAmount: 1999, Interval: "month", Active: true},
		priceDoc{ID: "price_basic_legacy", ProductID: "prod_basic", Currency: "usd", UnitAmount: 999, Interval: "month", Active: false},
		priceDoc{ID: "price_pro_month", ProductID: "prod_pro", Currency: "usd", UnitAmount: 4999, Interval: "month", Active: true},
		priceDoc{ID: "price_retired_month", ProductID: "prod_retired", Currency: "usd", UnitAmount: 500, Interval: "month", Active: true},
	})
	if err != nil {
		t.Fatalf("insert prices: %v", err)
	}

	repo := NewMongo(database, nil)

	list, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(list) != 2 || list[0].ID != "prod_basic" || list[1].ID != "prod_pro" {
		t.Fatalf("unexpected products %+v", list)
	}
	if len(list[0].Prices) != 2 || list[0].Prices[0].ID != "price_basic_month" {
		t.Fatalf("unexpected prices %+v", list[0].Prices)
	}
	if list[0].Prices[0].IntervalCount != 1 {
		t.Fatalf("expected interval count defaulted to 1, got %d", list[0].Prices[0].IntervalCount)
	}

	price, err := repo.GetPrice(ctx, "price_pro_month")
	if err != nil {
		t.Fatalf("GetPrice: %v", err)
	}
	if price.UnitAmount != 4999 {
		t.Fatalf("unexpected price %+v", price)
	}
	for _, id := range []string{"price_basic_legacy", "price_retired_month", "missing"} {
		if _, err := repo.GetPrice(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetPrice(%s): expected ErrNotFound, got %v", id, err)
		}
	}
}

func testMongo(ctx context.Context, t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	client, err := db.ConnectMongo(ctx, uri)
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	database := client.Database(fmt.Sprintf("catalog_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	if err := database.Collection(productsCollection).Drop(ctx); err != nil {
		t.Fatalf("drop products: %v", err)
	}
	if _, err := database.Collection(pricesCollection).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("clear prices: %v", err)
	}
	return database
}
