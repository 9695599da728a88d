package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"commerce-pricing/internal/domain"
	"commerce-pricing/internal/payment"
)

var (
	// ErrPriceRequired is returned when no price id was submitted.
	ErrPriceRequired = errors.New("price required")
	// ErrPriceUnavailable is returned for unknown or inactive prices.
	ErrPriceUnavailable = errors.New("price is not available")
)

type priceReader interface {
	GetPrice(ctx context.Context, id string) (*domain.Price, error)
}

type sessionProvider interface {
	CreateSession(ctx context.Context, in payment.SessionInput) (*domain.CheckoutSession, error)
}

// Service opens checkout sessions for catalog prices.
type Service struct {
	prices   priceReader
	provider sessionProvider
	logger   *log.Logger
}

func New(prices priceReader, provider sessionProvider, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{prices: prices, provider: provider, logger: logger}
}

// Create validates the price against the catalog and asks the provider for a session.
func (s *Service) Create(ctx context.Context, customer *domain.Customer, priceID string) (*domain.CheckoutSession, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, ErrPriceRequired
	}
	price, err := s.prices.GetPrice(ctx, priceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrPriceUnavailable
		}
		return nil, err
	}

	in := payment.SessionInput{Price: *price}
	if customer != nil {
		in.CustomerID = customer.ID
		in.CustomerEmail = customer.Email
	}
	sess, err := s.provider.CreateSession(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("checkout: session id=%s price=%s customer=%s", sess.ID, price.ID, in.CustomerID)
	return sess, nil
}
