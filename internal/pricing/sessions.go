package pricing

import (
	"context"

	"commerce-pricing/internal/domain"
)

type tokenResolver interface {
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
}

type sessionOpener interface {
	Create(ctx context.Context, customer *domain.Customer, priceID string) (*domain.CheckoutSession, error)
}

// ServiceSessions creates checkout sessions in-process, resolving the access
// token the same way the checkout endpoint does.
type ServiceSessions struct {
	auth     tokenResolver
	checkout sessionOpener
}

func NewServiceSessions(auth tokenResolver, checkout sessionOpener) *ServiceSessions {
	return &ServiceSessions{auth: auth, checkout: checkout}
}

func (s *ServiceSessions) CreateCheckoutSession(ctx context.Context, priceID, accessToken string) (string, error) {
	customer, err := s.auth.LookupByToken(ctx, accessToken)
	if err != nil {
		return "", err
	}
	sess, err := s.checkout.Create(ctx, customer, priceID)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}
