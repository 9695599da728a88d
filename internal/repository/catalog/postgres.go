package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"commerce-pricing/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	const q = `
SELECT p.id, p.name, COALESCE(p.description, ''), COALESCE(p.image, ''), p.active, p.metadata,
       COALESCE(pr.prices, '[]'::jsonb)
FROM products p
LEFT JOIN LATERAL (
    SELECT jsonb_agg(jsonb_build_object(
               'id', x.id,
               'productId', x.product_id,
               'currency', x.currency,
               'unitAmount', x.unit_amount,
               'interval', COALESCE(x.interval, ''),
               'intervalCount', x.interval_count,
               'trialPeriodDays', x.trial_period_days,
               'active', x.active
           ) ORDER BY x.unit_amount, x.id) AS prices
    FROM prices x
    WHERE x.product_id = p.id AND x.active
) pr ON TRUE
WHERE p.active
ORDER BY CASE WHEN p.metadata->>'index' ~ '^-?[0-9]+$' THEN (p.metadata->>'index')::int END NULLS LAST, p.name
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("catalog repo: list active error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var (
			p            domain.Product
			metadataJSON []byte
			pricesJSON   []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &p.Active, &metadataJSON, &pricesJSON); err != nil {
			return nil, err
		}
		if p.Metadata, err = decodeMetadata(metadataJSON); err != nil {
			r.logger.Printf("catalog repo: decode metadata id=%s err=%v", p.ID, err)
			return nil, err
		}
		if err := json.Unmarshal(pricesJSON, &p.Prices); err != nil {
			r.logger.Printf("catalog repo: decode prices id=%s err=%v", p.ID, err)
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("catalog repo: list active rows error=%v", err)
		return nil, err
	}
	r.logger.Printf("catalog repo: list active count=%d", len(result))
	return result, nil
}

func (r *postgresRepo) GetPrice(ctx context.Context, id string) (*domain.Price, error) {
	const q = `
SELECT x.id, x.product_id, x.currency, x.unit_amount, COALESCE(x.interval, ''), x.interval_count, x.trial_period_days, x.active
FROM prices x
JOIN products p ON p.id = x.product_id
WHERE x.id = $1 AND x.active AND p.active
`
	var p domain.Price
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.ProductID, &p.Currency, &p.UnitAmount, &p.Interval, &p.IntervalCount, &p.TrialPeriodDays, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("catalog repo: get price id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("catalog repo: get price id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

// decodeMetadata flattens a jsonb object into string values, the shape the
// provider uses for product metadata.
func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}
