package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"commerce-pricing/internal/domain"
)

type stubCatalog struct {
	products []domain.Product
	err      error
	calls    int
}

func (s *stubCatalog) ListActive(_ context.Context) ([]domain.Product, error) {
	s.calls++
	return s.products, s.err
}

type stubSessions struct {
	priceID string
	token   string
	id      string
	err     error
}

func (s *stubSessions) CreateCheckoutSession(_ context.Context, priceID, accessToken string) (string, error) {
	s.priceID = priceID
	s.token = accessToken
	return s.id, s.err
}

type stubRedirector struct {
	sessionID string
	err       error
}

func (s *stubRedirector) RedirectURL(_ context.Context, sessionID string) (string, error) {
	s.sessionID = sessionID
	if s.err != nil {
		return "", s.err
	}
	return "https://checkout.stripe.com/c/pay/" + sessionID, nil
}

var signedIn = Auth{User: &domain.Customer{ID: "cust-1", Email: "user@example.com"}, AccessToken: "token-abc"}

func catalogFixture() []domain.Product {
	return []domain.Product{
		{ID: "prod_basic", Name: "Basic", Description: "For individuals", Image: "https://img.example.com/basic.png", Active: true, Prices: []domain.Price{
			{ID: "price_basic_year", Currency: "usd", UnitAmount: 19900, Interval: "year", IntervalCount: 1, Active: true},
			{ID: "price_basic_month", Currency: "usd", UnitAmount: 1999, Interval: "month", IntervalCount: 1, Active: true},
			{ID: "price_basic_legacy", Currency: "usd", UnitAmount: 999, Interval: "month", IntervalCount: 1, Active: false},
		}},
		{ID: "prod_retired", Name: "Retired", Active: false, Prices: []domain.Price{
			{ID: "price_retired", Currency: "usd", UnitAmount: 500, Interval: "month", Active: true},
		}},
		{ID: "prod_empty", Name: "Empty", Active: true, Prices: []domain.Price{
			{ID: "price_empty", Currency: "usd", UnitAmount: 100, Interval: "month", Active: false},
		}},
		{ID: "prod_pro", Name: "Pro", Active: true, Prices: []domain.Price{
			{ID: "price_pro_month", Currency: "usd", UnitAmount: 4999, Interval: "month", IntervalCount: 1, Active: true},
		}},
	}
}

func loadedView(t *testing.T, sessions SessionCreator, redirector Redirector) *View {
	t.Helper()
	v := New(&stubCatalog{products: catalogFixture()}, sessions, redirector, nil)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return v
}

func TestLoad_RendersOnlyDisplayableProducts(t *testing.T) {
	v := loadedView(t, &stubSessions{}, &stubRedirector{})
	page := v.Page(signedIn, "en-US")

	if page.Loading {
		t.Fatalf("expected loading cleared")
	}
	if len(page.Products) != 2 || page.Products[0].ID != "prod_basic" || page.Products[1].ID != "prod_pro" {
		t.Fatalf("unexpected products %+v", page.Products)
	}
	basic := page.Products[0]
	if basic.Name != "Basic" || basic.Description != "For individuals" || basic.Image != "https://img.example.com/basic.png" {
		t.Fatalf("unexpected card %+v", basic)
	}
	if len(basic.Options) != 2 {
		t.Fatalf("expected 2 options, got %+v", basic.Options)
	}
	if basic.Options[0].ID != "price_basic_month" || basic.Options[1].ID != "price_basic_year" {
		t.Fatalf("expected options ascending by amount, got %+v", basic.Options)
	}
	if basic.Options[0].Label != "$19.99 per month" {
		t.Fatalf("unexpected label %q", basic.Options[0].Label)
	}
	if basic.SubmitDisabled {
		t.Fatalf("expected submit enabled for signed in user")
	}
}

func TestLoad_RunsOnce(t *testing.T) {
	catalog := &stubCatalog{products: catalogFixture()}
	v := New(catalog, &stubSessions{}, &stubRedirector{}, nil)
	for i := 0; i < 3; i++ {
		if err := v.Load(context.Background()); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	if catalog.calls != 1 {
		t.Fatalf("expected one catalog read, got %d", catalog.calls)
	}
}

func TestLoad_FailureLeavesEmptyList(t *testing.T) {
	v := New(&stubCatalog{err: errors.New("network error")}, &stubSessions{}, &stubRedirector{}, nil)

	err := v.Load(context.Background())
	if err == nil || err.Error() != "network error" {
		t.Fatalf("expected network error, got %v", err)
	}
	state := v.State()
	if state.Loading {
		t.Fatalf("expected loading false after failure")
	}
	if len(state.Products) != 0 {
		t.Fatalf("expected empty product list, got %+v", state.Products)
	}
	if page := v.Page(signedIn, "en-US"); page.Loading || len(page.Products) != 0 {
		t.Fatalf("expected empty rendered page, got %+v", page)
	}
}

func TestPage_LoadingShowsOnlyPlaceholder(t *testing.T) {
	v := New(&stubCatalog{products: catalogFixture()}, &stubSessions{}, &stubRedirector{}, nil)

	page := v.Page(signedIn, "en-US")
	if !page.Loading {
		t.Fatalf("expected loading placeholder")
	}
	if len(page.Products) != 0 {
		t.Fatalf("expected no product forms while loading, got %+v", page.Products)
	}
}

func TestPage_SubmitDisabledWithoutUser(t *testing.T) {
	v := loadedView(t, &stubSessions{}, &stubRedirector{})
	page := v.Page(Auth{}, "en-US")
	if page.SignedIn {
		t.Fatalf("expected signed out page")
	}
	for _, card := range page.Products {
		if !card.SubmitDisabled {
			t.Fatalf("expected submit disabled for %s", card.ID)
		}
	}
}

func TestCheckout_EndpointAndRedirect(t *testing.T) {
	var (
		gotBody map[string]string
		gotAuth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/createCheckoutSession" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"cs_test_456"}`))
	}))
	defer srv.Close()

	redirector := &stubRedirector{}
	v := loadedView(t, NewEndpointClient(srv.URL+"/api/createCheckoutSession", srv.Client()), redirector)

	res, err := v.Checkout(context.Background(), url.Values{"price": {"price_123"}}, signedIn)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(gotBody) != 1 || gotBody["price"] != "price_123" {
		t.Fatalf("unexpected endpoint body %+v", gotBody)
	}
	if gotAuth != "Bearer token-abc" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if redirector.sessionID != "cs_test_456" {
		t.Fatalf("expected redirect with cs_test_456, got %q", redirector.sessionID)
	}
	if res.SessionID != "cs_test_456" || res.URL != "https://checkout.stripe.com/c/pay/cs_test_456" {
		t.Fatalf("unexpected redirect %+v", res)
	}

	state := v.State()
	if state.Phase != PhaseRedirecting || !state.Loading {
		t.Fatalf("expected redirecting with loading kept, got %+v", state)
	}
	if _, err := v.Checkout(context.Background(), url.Values{"price": {"price_123"}}, signedIn); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy after redirect, got %v", err)
	}
}

func TestCheckout_SessionErrorReturnsToIdle(t *testing.T) {
	sessions := &stubSessions{err: errors.New("price is not available")}
	redirector := &stubRedirector{}
	v := loadedView(t, sessions, redirector)

	_, err := v.Checkout(context.Background(), url.Values{"price": {"price_gone"}}, signedIn)
	if err == nil || err.Error() != "price is not available" {
		t.Fatalf("expected session error, got %v", err)
	}
	if redirector.sessionID != "" {
		t.Fatalf("redirect must not run after session failure")
	}
	state := v.State()
	if state.Loading || state.Phase != PhaseIdle {
		t.Fatalf("expected idle and not loading, got %+v", state)
	}
	if page := v.Page(signedIn, "en-US"); page.Loading || len(page.Products) != 2 {
		t.Fatalf("expected pricing page back, got %+v", page)
	}
}

func TestCheckout_RedirectErrorReturnsToIdle(t *testing.T) {
	v := loadedView(t, &stubSessions{id: "cs_test_1"}, &stubRedirector{err: errors.New("redirect failed")})

	if _, err := v.Checkout(context.Background(), url.Values{"price": {"price_123"}}, signedIn); err == nil || err.Error() != "redirect failed" {
		t.Fatalf("expected redirect error, got %v", err)
	}
	if state := v.State(); state.Loading || state.Phase != PhaseIdle {
		t.Fatalf("expected idle, got %+v", state)
	}
}

func TestCheckout_Guards(t *testing.T) {
	sessions := &stubSessions{id: "cs_test_1"}

	v := loadedView(t, sessions, &stubRedirector{})
	if _, err := v.Checkout(context.Background(), url.Values{"price": {"price_123"}}, Auth{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := v.Checkout(context.Background(), url.Values{}, signedIn); !errors.Is(err, ErrPriceRequired) {
		t.Fatalf("expected ErrPriceRequired, got %v", err)
	}
	if sessions.priceID != "" {
		t.Fatalf("endpoint must not be called without a price")
	}

	notLoaded := New(&stubCatalog{}, sessions, &stubRedirector{}, nil)
	if _, err := notLoaded.Checkout(context.Background(), url.Values{"price": {"price_123"}}, signedIn); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while loading, got %v", err)
	}

	closed := loadedView(t, sessions, &stubRedirector{})
	closed.Close()
	if _, err := closed.Checkout(context.Background(), url.Values{"price": {"price_123"}}, signedIn); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

type blockingCatalog struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCatalog) ListActive(ctx context.Context) ([]domain.Product, error) {
	close(b.started)
	if b.release == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	<-b.release
	return catalogFixture(), nil
}

func TestClose_CancelsInFlightLoad(t *testing.T) {
	catalog := &blockingCatalog{started: make(chan struct{})}
	v := New(catalog, &stubSessions{}, &stubRedirector{}, nil)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-catalog.started
	v.Close()

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if state := v.State(); len(state.Products) != 0 || !state.Loading {
		t.Fatalf("state must not change after close, got %+v", state)
	}
}

func TestClose_DropsLateResult(t *testing.T) {
	catalog := &blockingCatalog{started: make(chan struct{}), release: make(chan struct{})}
	v := New(catalog, &stubSessions{}, &stubRedirector{}, nil)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-catalog.started
	v.Close()
	close(catalog.release)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if state := v.State(); len(state.Products) != 0 {
		t.Fatalf("late result must be dropped, got %+v", state.Products)
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseIdle.String() != "idle" || PhaseSubmitting.String() != "submitting" || PhaseRedirecting.String() != "redirecting" {
		t.Fatalf("unexpected phase names")
	}
}
