package catalog

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"commerce-pricing/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	productsCollection = "products"
	pricesCollection   = "prices"
)

type productDoc struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Description string            `bson:"description,omitempty"`
	Image       string            `bson:"image,omitempty"`
	Active      bool              `bson:"active"`
	Metadata    map[string]string `bson:"metadata,omitempty"`
	Prices      []priceDoc        `bson:"prices,omitempty"`
}

type priceDoc struct {
	ID              string `bson:"_id"`
	ProductID       string `bson:"product_id"`
	Currency        string `bson:"currency"`
	UnitAmount      int64  `bson:"unit_amount"`
	Interval        string `bson:"interval,omitempty"`
	IntervalCount   int    `bson:"interval_count,omitempty"`
	TrialPeriodDays int    `bson:"trial_period_days,omitempty"`
	Active          bool   `bson:"active"`
}

type mongoRepo struct {
	products *mongo.Collection
	prices   *mongo.Collection
	logger   *log.Logger
}

// NewMongo returns a Repository reading the products and prices collections.
func NewMongo(db *mongo.Database, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &mongoRepo{
		products: db.Collection(productsCollection),
		prices:   db.Collection(pricesCollection),
		logger:   logger,
	}
}

func (r *mongoRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "active", Value: true}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: pricesCollection},
			{Key: "let", Value: bson.D{{Key: "productId", Value: "$_id"}}},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$product_id", "$$productId"}}},
					bson.D{{Key: "$eq", Value: bson.A{"$active", true}}},
				}}}}}}},
				{{Key: "$sort", Value: bson.D{{Key: "unit_amount", Value: 1}, {Key: "_id", Value: 1}}}},
			}},
			{Key: "as", Value: "prices"},
		}}},
	}

	cursor, err := r.products.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Printf("catalog mongo: list active error=%v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Printf("catalog mongo: decode error=%v", err)
		return nil, err
	}

	result := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		p := domain.Product{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Image:       d.Image,
			Active:      d.Active,
			Metadata:    d.Metadata,
			Prices:      make([]domain.Price, 0, len(d.Prices)),
		}
		for _, pd := range d.Prices {
			p.Prices = append(p.Prices, pd.toDomain())
		}
		result = append(result, p)
	}
	domain.SortCatalog(result)
	r.logger.Printf("catalog mongo: list active count=%d", len(result))
	return result, nil
}

func (r *mongoRepo) GetPrice(ctx context.Context, id string) (*domain.Price, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc priceDoc
	if err := r.prices.FindOne(ctx, bson.M{"_id": id, "active": true}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Printf("catalog mongo: get price id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog mongo: get price id=%s error=%v", id, err)
		return nil, err
	}

	n, err := r.products.CountDocuments(ctx, bson.M{"_id": doc.ProductID, "active": true})
	if err != nil {
		r.logger.Printf("catalog mongo: check product id=%s error=%v", doc.ProductID, err)
		return nil, err
	}
	if n == 0 {
		r.logger.Printf("catalog mongo: get price id=%s product=%s inactive", id, doc.ProductID)
		return nil, domain.ErrNotFound
	}

	p := doc.toDomain()
	return &p, nil
}

func (d priceDoc) toDomain() domain.Price {
	count := d.IntervalCount
	if count == 0 && d.Interval != "" {
		count = 1
	}
	return domain.Price{
		ID:              d.ID,
		ProductID:       d.ProductID,
		Currency:        d.Currency,
		UnitAmount:      d.UnitAmount,
		Interval:        d.Interval,
		IntervalCount:   count,
		TrialPeriodDays: d.TrialPeriodDays,
		Active:          d.Active,
	}
}
