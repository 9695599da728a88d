package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"commerce-pricing/internal/domain"
	custrepo "commerce-pricing/internal/repository/customer"
	tokenrepo "commerce-pricing/internal/repository/token"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// Service resolves the signed-in customer and the access token forwarded to checkout.
type Service struct {
	repo      custrepo.Repository
	tokens    *tokenManager
	accessTTL time.Duration
}

// New creates a Service issuing access tokens valid for accessTTL (48h when zero).
func New(repo custrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration) *Service {
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	return &Service{
		repo:      repo,
		tokens:    newTokenManager(tokens),
		accessTTL: accessTTL,
	}
}

// Login validates credentials and returns the customer with a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, c.ID, "access", s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return c, access, nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

// HashPassword returns the bcrypt hash stored for a customer.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
