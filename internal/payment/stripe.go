// Package payment creates provider-hosted checkout sessions.
package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"commerce-pricing/internal/domain"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// ErrNoRedirectURL is returned when a session cannot be turned into a redirect.
var ErrNoRedirectURL = errors.New("checkout session has no redirect url")

// Error carries the provider's user-facing message.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config configures the Stripe client.
type Config struct {
	SecretKey  string
	APIURL     string
	SuccessURL string
	CancelURL  string
}

// SessionInput describes the purchase a checkout session is opened for.
type SessionInput struct {
	Price         domain.Price
	CustomerID    string
	CustomerEmail string
}

// Stripe opens checkout sessions and resolves their hosted page.
type Stripe struct {
	api        *client.API
	successURL string
	cancelURL  string
	logger     *log.Logger
}

// NewStripe builds a client without network retries.
func NewStripe(cfg Config, logger *log.Logger) *Stripe {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.APIURL, "/"))
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	}
	return &Stripe{
		api:        client.New(cfg.SecretKey, backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
	}
}

// CreateSession opens a checkout session for a single unit of the price.
// Recurring prices start a subscription, others a one-time payment.
func (s *Stripe) CreateSession(ctx context.Context, in SessionInput) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL:          stripe.String(s.successURL),
		CancelURL:           stripe.String(s.cancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.Price.ID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx

	if in.Price.Recurring() {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		if in.Price.TrialPeriodDays > 0 {
			params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
				TrialPeriodDays: stripe.Int64(int64(in.Price.TrialPeriodDays)),
			}
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
	}
	if in.CustomerID != "" {
		params.ClientReferenceID = stripe.String(in.CustomerID)
		params.AddMetadata("customer_id", in.CustomerID)
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Printf("stripe: create session price=%s error=%v", in.Price.ID, err)
		return nil, wrap("create checkout session", err)
	}
	s.logger.Printf("stripe: created session id=%s price=%s mode=%s", sess.ID, in.Price.ID, sess.Mode)
	return &domain.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// RedirectURL resolves the provider-hosted page for a session id.
func (s *Stripe) RedirectURL(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrNoRedirectURL
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		s.logger.Printf("stripe: get session id=%s error=%v", sessionID, err)
		return "", wrap("retrieve checkout session", err)
	}
	if sess.URL == "" {
		return "", ErrNoRedirectURL
	}
	return sess.URL, nil
}

func wrap(op string, err error) error {
	msg := err.Error()
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		msg = stripeErr.Msg
	}
	return &Error{Op: op, Message: msg, Err: err}
}
