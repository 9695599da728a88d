package httpserver

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log"
	"time"

	"commerce-pricing/internal/domain"
	"commerce-pricing/internal/pricing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

type authService interface {
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	AccessTTLSeconds() int
}

type checkoutService interface {
	Create(ctx context.Context, customer *domain.Customer, priceID string) (*domain.CheckoutSession, error)
}

// Deps carries the collaborators the routes are built from.
type Deps struct {
	Catalog        pricing.Catalog
	Sessions       pricing.SessionCreator
	Redirector     pricing.Redirector
	CheckoutSvc    checkoutService
	AuthSvc        authService
	DefaultLocale  string
	AllowedOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("httpserver: catalog is required")
	case d.Sessions == nil:
		return errors.New("httpserver: session creator is required")
	case d.Redirector == nil:
		return errors.New("httpserver: redirector is required")
	case d.CheckoutSvc == nil:
		return errors.New("httpserver: checkout service is required")
	case d.AuthSvc == nil:
		return errors.New("httpserver: auth service is required")
	}
	return nil
}

// buildRouter wires routes for the pricing page and its API.
func buildRouter(logger *log.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.DefaultLocale == "" {
		deps.DefaultLocale = pricing.DefaultLocale
	}

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), requestIDMiddleware())
	router.SetHTMLTemplate(tmpl)
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	pages := &pricingHandler{
		catalog:       deps.Catalog,
		sessions:      deps.Sessions,
		redirector:    deps.Redirector,
		logger:        logger,
		defaultLocale: deps.DefaultLocale,
	}
	web := router.Group("/", authMiddleware(deps.AuthSvc))
	web.GET("/pricing", pages.show)
	web.POST("/pricing/checkout", pages.checkout)

	api := router.Group("/api")
	api.Use(authMiddleware(deps.AuthSvc))

	apiHandler := &apiHandler{
		catalog:  deps.Catalog,
		checkout: deps.CheckoutSvc,
		auth:     deps.AuthSvc,
		logger:   logger,
	}
	api.GET("/products", apiHandler.products)
	api.POST("/createCheckoutSession", requireAuth(), apiHandler.createCheckoutSession)
	api.POST("/auth/token", apiHandler.token)

	return router, nil
}
