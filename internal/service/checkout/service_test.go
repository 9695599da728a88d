package checkout

import (
	"context"
	"errors"
	"testing"

	"commerce-pricing/internal/domain"
	"commerce-pricing/internal/payment"
)

type stubPrices struct {
	prices map[string]domain.Price
	err    error
}

func (s *stubPrices) GetPrice(_ context.Context, id string) (*domain.Price, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.prices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type stubProvider struct {
	got  *payment.SessionInput
	sess *domain.CheckoutSession
	err  error
}

func (s *stubProvider) CreateSession(_ context.Context, in payment.SessionInput) (*domain.CheckoutSession, error) {
	s.got = &in
	return s.sess, s.err
}

func TestCreate_Success(t *testing.T) {
	prices := &stubPrices{prices: map[string]domain.Price{
		"price_123": {ID: "price_123", ProductID: "prod_basic", Currency: "usd", UnitAmount: 1999, Interval: "month", Active: true},
	}}
	provider := &stubProvider{sess: &domain.CheckoutSession{ID: "cs_test_456"}}
	svc := New(prices, provider, nil)

	sess, err := svc.Create(context.Background(), &domain.Customer{ID: "cust-1", Email: "user@example.com"}, " price_123 ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID != "cs_test_456" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if provider.got == nil || provider.got.Price.ID != "price_123" || provider.got.CustomerID != "cust-1" || provider.got.CustomerEmail != "user@example.com" {
		t.Fatalf("unexpected provider input %+v", provider.got)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(&stubPrices{}, &stubProvider{}, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, nil, ""); !errors.Is(err, ErrPriceRequired) {
		t.Fatalf("expected ErrPriceRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, nil, "price_missing"); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestCreate_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&stubPrices{err: boom}, &stubProvider{}, nil)
	if _, err := svc.Create(context.Background(), nil, "price_123"); !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}

	providerErr := &payment.Error{Op: "create checkout session", Message: "card declined"}
	svc = New(&stubPrices{prices: map[string]domain.Price{"price_123": {ID: "price_123", Active: true}}}, &stubProvider{err: providerErr}, nil)
	_, err := svc.Create(context.Background(), nil, "price_123")
	var perr *payment.Error
	if !errors.As(err, &perr) || err.Error() != "card declined" {
		t.Fatalf("expected provider error, got %v", err)
	}
}
