package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geonews/geonews/internal/article"
	"github.com/geonews/geonews/internal/config"
	"github.com/geonews/geonews/internal/db"
	"github.com/geonews/geonews/internal/enrich"
	"github.com/geonews/geonews/internal/event"
	"github.com/geonews/geonews/internal/extract"
	"github.com/geonews/geonews/internal/gazetteer"
	"github.com/geonews/geonews/internal/geocode"
	"github.com/geonews/geonews/internal/ingest"
	"github.com/geonews/geonews/internal/normalize"
	"github.com/geonews/geonews/internal/web"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[geonews] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	sources, err := config.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		logger.Fatalf("failed to load sources config: %v", err)
	}

	// Mongo
	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	dbInstance := mongoClient.Database(cfg.MongoDBName)

	// Article repository
	articleRepo, err := article.NewMongoArticleRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init repository: %v", err)
	}
	logger.Println("article repository initialised")

	// Gazetteer, loaded once; missing files degrade to empty tables.
	gaz := gazetteer.Load(cfg.AliasMappingPath, cfg.ManualCoordsPath, logger)

	// Enrichment pipeline
	extractor := extract.NewExtractor(
		extract.NewProseTagger(),
		extract.DefaultPatterns(),
		[]string{"GPE", "NORP"},
	)
	normalizer := normalize.NewNormalizer(gaz, normalize.NewFuzzyScorer(), cfg.FuzzyThreshold, logger)

	geocodeKeys, err := geocode.NewCredentialPool(cfg.GeocodeKeys)
	if err != nil {
		logger.Fatalf("failed to init geocode credentials: %v", err)
	}
	resolver := geocode.NewClient(
		cfg.GeocodeBaseURL,
		geocodeKeys,
		gaz,
		cfg.GeocodePace,
		&http.Client{Timeout: cfg.GeocodeTimeout},
		logger,
	)

	enricher := enrich.NewService(extractor, normalizer, resolver, logger)

	// News client
	newsKeys, err := geocode.NewCredentialPool(cfg.NewsAPIKeys)
	if err != nil {
		logger.Fatalf("failed to init news api credentials: %v", err)
	}
	newsClient := ingest.NewNewsAPIClient(
		cfg.NewsAPIBaseURL,
		newsKeys,
		&http.Client{Timeout: cfg.Timeout},
	)

	// Event publisher (RabbitMQ)
	publisher, err := event.NewRabbitPublisher(
		cfg.RabbitURI,
		cfg.RabbitExchange,
		cfg.RabbitRoutingKey,
		logger,
	)
	if err != nil {
		logger.Fatalf("failed to init rabbit publisher: %v", err)
	}
	defer publisher.Close()

	// Ingest service (poller)
	ingestService := ingest.NewService(
		articleRepo,
		newsClient,
		enricher,
		publisher,
		sources.Categories,
		sources.Countries,
		sources.Sources,
		cfg.PageSize,
		cfg.Lookback,
		cfg.MaxPolls,
		logger,
	)

	// HTTP server
	handler := web.NewHandler(articleRepo, ingestService, cfg.RecentWindow, logger)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: web.NewRouter(handler),
	}

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	// Start background poller
	go ingestService.StartPolling(ctx, cfg.PollInterval)

	logger.Println("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Println("shutdown signal received, shutting down...")

	// Unified shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	// Graceful Mongo shutdown
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Printf("mongo disconnect error: %v", err)
	}

	logger.Println("shutdown complete")
}
