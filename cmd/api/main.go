package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"commerce-pricing/internal/config"
	"commerce-pricing/internal/db"
	"commerce-pricing/internal/httpserver"
	"commerce-pricing/internal/payment"
	"commerce-pricing/internal/pricing"
	catalogrepo "commerce-pricing/internal/repository/catalog"
	customerrepo "commerce-pricing/internal/repository/customer"
	tokenrepo "commerce-pricing/internal/repository/token"
	authsvc "commerce-pricing/internal/service/auth"
	checkoutsvc "commerce-pricing/internal/service/checkout"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Stripe.SecretKey == "" {
		logger.Fatalf("STRIPE_SECRET_KEY is required")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	catalogRepo := catalogrepo.NewPostgres(dbpool, logger)
	if cfg.CatalogBackend == "mongo" {
		mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			logger.Fatalf("connect to mongo: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Printf("disconnect mongo: %v", err)
			}
		}()
		catalogRepo = catalogrepo.NewMongo(mongoClient.Database(cfg.MongoDatabase), logger)
	}
	logger.Printf("catalog backend: %s", cfg.CatalogBackend)

	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	authService := authsvc.New(customerRepo, tokenRepo, cfg.AccessTokenTTL)

	provider := payment.NewStripe(payment.Config{
		SecretKey:  cfg.Stripe.SecretKey,
		APIURL:     cfg.Stripe.APIURL,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
	}, logger)
	checkoutService := checkoutsvc.New(catalogRepo, provider, logger)

	var sessions pricing.SessionCreator = pricing.NewServiceSessions(authService, checkoutService)
	if cfg.Checkout.EndpointURL != "" {
		sessions = pricing.NewEndpointClient(cfg.Checkout.EndpointURL, nil)
		logger.Printf("checkout sessions via %s", cfg.Checkout.EndpointURL)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:        catalogRepo,
		Sessions:       sessions,
		Redirector:     provider,
		CheckoutSvc:    checkoutService,
		AuthSvc:        authService,
		DefaultLocale:  cfg.DefaultLocale,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
