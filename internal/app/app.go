// Package app wires the ledger store, embedder, object storage and engines
// from configuration. The API server and the CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/analytics"
	"github.com/dvloznov/finance-advisor/internal/config"
	"github.com/dvloznov/finance-advisor/internal/coordinator"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/dvloznov/finance-advisor/internal/gcs"
	"github.com/dvloznov/finance-advisor/internal/gcsuploader"
	"github.com/dvloznov/finance-advisor/internal/infra/bigquery"
	"github.com/dvloznov/finance-advisor/internal/ingest"
	"github.com/dvloznov/finance-advisor/internal/ledger"
	"github.com/dvloznov/finance-advisor/internal/ledger/inmemory"
	"github.com/dvloznov/finance-advisor/internal/recommend"
	"github.com/dvloznov/finance-advisor/internal/savings"
)

// App holds the wired services.
type App struct {
	Store    ledger.Store
	Embedder embeddings.Embedder
	// Objects is nil when no bucket is configured.
	Objects gcs.ObjectStore

	Analytics       *analytics.Engine
	Savings         *savings.Engine
	Insights        *savings.InsightGenerator
	Recommendations *recommend.Manager
	Coordinator     *coordinator.Coordinator
	Chat            *coordinator.Chat
	Ingest          *ingest.Service

	gcsClient *gcsuploader.Client
}

// New builds an App from cfg. Close releases the clients it opened.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{Store: store, Embedder: embeddings.DisabledEmbedder{}}

	if cfg.Embeddings.Enabled {
		embedder, err := embeddings.NewGenAIEmbedder(ctx, cfg.Embeddings.Model, cfg.Embeddings.Dimensions)
		if err != nil {
			// Similarity search falls back to plain reads without an embedder.
			log.Warn().Err(err).Msg("Embeddings unavailable, continuing without vectors")
		} else {
			a.Embedder = embedder
		}
	}

	if cfg.Storage.Bucket != "" {
		client, err := gcsuploader.NewClient(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("app: storage client: %w", err)
		}
		a.gcsClient = client
		a.Objects = client
	} else {
		log.Warn().Msg("No storage bucket configured - GCS ingestion and uploads are disabled")
	}

	a.Analytics = analytics.New(store)
	a.Savings = savings.New(a.Analytics, store)
	a.Insights = savings.NewInsightGenerator(a.Savings, store, a.Embedder)
	a.Recommendations = recommend.NewManager(store, a.Analytics)
	a.Coordinator = coordinator.New(a.Analytics, a.Savings, store, embeddings.NewRetriever(a.Embedder, store, store))
	a.Chat = coordinator.NewChat(a.Coordinator, store, a.Embedder)
	a.Ingest = ingest.NewService(store, store, a.Objects, a.Embedder)

	log.Info().
		Str("store", cfg.Store.Backend).
		Bool("embeddings", cfg.Embeddings.Enabled).
		Str("bucket", cfg.Storage.Bucket).
		Msg("Services initialized")
	return a, nil
}

func newStore(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return inmemory.NewStore(), nil
	case config.StoreBigQuery, "":
		repo, err := bigquery.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
		if err != nil {
			return nil, fmt.Errorf("app: bigquery repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
	}
}

// Close releases the store and storage clients.
func (a *App) Close() error {
	var firstErr error
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
