// Package pricing holds the pricing page state: the catalog it loaded once,
// the render model derived from it and the checkout started from its form.
package pricing

import (
	"context"
	"errors"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"commerce-pricing/internal/domain"
)

var (
	// ErrClosed is returned when a result arrives after the view was closed.
	ErrClosed = errors.New("pricing view closed")
	// ErrNotAuthenticated is returned when checkout is attempted without a user.
	ErrNotAuthenticated = errors.New("sign in to subscribe")
	// ErrBusy is returned while the catalog is loading or a checkout is in flight.
	ErrBusy = errors.New("checkout already in progress")
	// ErrPriceRequired is returned when the form carries no price.
	ErrPriceRequired = errors.New("choose a pricing plan")
)

// Catalog reads active products with their active prices.
type Catalog interface {
	ListActive(ctx context.Context) ([]domain.Product, error)
}

// SessionCreator exchanges a price id and access token for a checkout session id.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, priceID, accessToken string) (string, error)
}

// Redirector turns a checkout session id into the provider-hosted page.
type Redirector interface {
	RedirectURL(ctx context.Context, sessionID string) (string, error)
}

// Auth is the signed-in state. A nil User means nobody is signed in.
type Auth struct {
	User        *domain.Customer
	AccessToken string
}

// Phase tracks a single checkout submission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseRedirecting
)

func (p Phase) String() string {
	switch p {
	case PhaseSubmitting:
		return "submitting"
	case PhaseRedirecting:
		return "redirecting"
	default:
		return "idle"
	}
}

// Redirect is where the browser goes once a session exists.
type Redirect struct {
	SessionID string
	URL       string
}

// State is a snapshot of the view.
type State struct {
	Products []domain.Product
	Loading  bool
	Phase    Phase
}

// View is one pricing page lifetime. Load runs once; Close discards any
// result that completes afterwards.
type View struct {
	catalog    Catalog
	sessions   SessionCreator
	redirector Redirector
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	loadOnce sync.Once
	loadErr  error

	mu       sync.Mutex
	products []domain.Product
	loading  bool
	phase    Phase
	closed   bool
}

// New builds a view in the loading state.
func New(catalog Catalog, sessions SessionCreator, redirector Redirector, logger *log.Logger) *View {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		catalog:    catalog,
		sessions:   sessions,
		redirector: redirector,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		loading:    true,
	}
}

// Load reads the catalog the first time it is called and returns that
// outcome on every call. A failed read leaves the product list empty.
func (v *View) Load(ctx context.Context) error {
	v.loadOnce.Do(func() {
		v.loadErr = v.load(ctx)
	})
	return v.loadErr
}

func (v *View) load(ctx context.Context) error {
	ctx, cancel := v.bind(ctx)
	defer cancel()

	products, err := v.catalog.ListActive(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		v.logger.Printf("pricing: catalog load finished after close, dropped")
		return ErrClosed
	}
	v.loading = false
	if err != nil {
		v.products = nil
		v.logger.Printf("pricing: catalog load error=%v", err)
		return err
	}
	v.products = domain.Displayable(products)
	v.logger.Printf("pricing: catalog loaded products=%d", len(v.products))
	return nil
}

// Close tears the view down and cancels in-flight work.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}

// State returns a copy of the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	products := make([]domain.Product, len(v.products))
	copy(products, v.products)
	return State{Products: products, Loading: v.loading, Phase: v.phase}
}

// Checkout submits the form's selected price. On success the view stays
// loading and moves to the redirecting phase; on failure it goes back to idle.
func (v *View) Checkout(ctx context.Context, form url.Values, auth Auth) (Redirect, error) {
	if auth.User == nil {
		return Redirect{}, ErrNotAuthenticated
	}

	v.mu.Lock()
	switch {
	case v.closed:
		v.mu.Unlock()
		return Redirect{}, ErrClosed
	case v.loading || v.phase != PhaseIdle:
		v.mu.Unlock()
		return Redirect{}, ErrBusy
	}
	v.loading = true
	v.phase = PhaseSubmitting
	v.mu.Unlock()

	priceID := strings.TrimSpace(form.Get("price"))
	res, err := v.startCheckout(ctx, priceID, auth.AccessToken)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Redirect{}, ErrClosed
	}
	if err != nil {
		v.loading = false
		v.phase = PhaseIdle
		v.logger.Printf("pricing: checkout price=%s customer=%s error=%v", priceID, auth.User.ID, err)
		return Redirect{}, err
	}
	v.phase = PhaseRedirecting
	v.logger.Printf("pricing: checkout price=%s customer=%s session=%s", priceID, auth.User.ID, res.SessionID)
	return res, nil
}

func (v *View) startCheckout(ctx context.Context, priceID, accessToken string) (Redirect, error) {
	if priceID == "" {
		return Redirect{}, ErrPriceRequired
	}
	ctx, cancel := v.bind(ctx)
	defer cancel()

	sessionID, err := v.sessions.CreateCheckoutSession(ctx, priceID, accessToken)
	if err != nil {
		return Redirect{}, err
	}
	target, err := v.redirector.RedirectURL(ctx, sessionID)
	if err != nil {
		return Redirect{}, err
	}
	return Redirect{SessionID: sessionID, URL: target}, nil
}

// bind derives a context that is also cancelled when the view closes.
func (v *View) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
