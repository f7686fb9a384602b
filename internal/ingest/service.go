package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/embeddings"
	"github.com/dvloznov/finance-advisor/internal/gcs"
	"github.com/dvloznov/finance-advisor/internal/jobs"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/metrics"
)

// TransactionWriter stores normalized transactions.
type TransactionWriter interface {
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
}

// AccountReader resolves the account a file is imported into.
type AccountReader interface {
	GetAccount(ctx context.Context, householdID, accountID string) (*domain.Account, error)
}

// Request identifies where imported rows belong. AccountKind overrides the
// stored account type when set.
type Request struct {
	HouseholdID string             `json:"householdId"`
	AccountID   string             `json:"accountId"`
	AccountKind domain.AccountKind `json:"accountType,omitempty"`
}

// Result summarizes one import.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Embedded int `json:"embedded"`
}

// Service imports CSV statements.
type Service struct {
	txs      TransactionWriter
	accounts AccountReader
	objects  gcs.ObjectStore
	embedder embeddings.Embedder
}

// NewService creates a Service. objects may be nil when Cloud Storage is not
// configured; embedder may be nil to store transactions without vectors.
func NewService(txs TransactionWriter, accounts AccountReader, objects gcs.ObjectStore, embedder embeddings.Embedder) *Service {
	if embedder == nil {
		embedder = embeddings.DisabledEmbedder{}
	}
	return &Service{txs: txs, accounts: accounts, objects: objects, embedder: embedder}
}

func (s *Service) accountKind(ctx context.Context, req Request) (domain.AccountKind, error) {
	if err := domain.RequireHousehold(req.HouseholdID); err != nil {
		return "", err
	}
	if req.AccountID == "" {
		return "", &domain.ValidationError{Field: "accountId"}
	}

	account, err := s.accounts.GetAccount(ctx, req.HouseholdID, req.AccountID)
	if err != nil {
		return "", fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return "", fmt.Errorf("account %s: %w", req.AccountID, domain.ErrNotFound)
	}
	if req.AccountKind != "" {
		return req.AccountKind, nil
	}
	return account.Kind, nil
}

// IngestCSV normalizes r, embeds the rows best-effort and stores them.
func (s *Service) IngestCSV(ctx context.Context, req Request, r io.Reader) (Result, error) {
	kind, err := s.accountKind(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("IngestCSV: %w", err)
	}

	normalized, err := NormalizeCSV(r, req.HouseholdID, req.AccountID, kind)
	if err != nil {
		return Result{}, fmt.Errorf("IngestCSV: %w", err)
	}
	metrics.IngestRowsSkipped.Add(float64(normalized.Skipped))

	res := Result{Skipped: normalized.Skipped}
	if len(normalized.Transactions) == 0 {
		return res, nil
	}

	res.Embedded = embeddings.AnnotateTransactions(ctx, s.embedder, normalized.Transactions)
	if err := s.txs.InsertTransactions(ctx, normalized.Transactions); err != nil {
		return Result{}, fmt.Errorf("IngestCSV: insert transactions: %w", err)
	}
	res.Imported = len(normalized.Transactions)
	metrics.TransactionsIngested.Add(float64(res.Imported))

	log := logger.WithHousehold(logger.FromContext(ctx), req.HouseholdID)
	log.Info().
		Str("account_id", req.AccountID).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Int("embedded", res.Embedded).
		Msg("CSV ingested")
	return res, nil
}

// IngestFromGCS downloads a gs:// object and imports it.
func (s *Service) IngestFromGCS(ctx context.Context, req Request, uri string) (Result, error) {
	if s.objects == nil {
		return Result{}, fmt.Errorf("IngestFromGCS: object storage is not configured")
	}
	data, err := s.objects.Fetch(ctx, uri)
	if err != nil {
		return Result{}, fmt.Errorf("IngestFromGCS: %w", err)
	}
	return s.IngestCSV(ctx, req, bytes.NewReader(data))
}

// HandleJob is the jobs.JobHandler for IngestCSVJob.
func (s *Service) HandleJob(ctx context.Context, job jobs.Job) error {
	ingestJob, ok := job.(*jobs.IngestCSVJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("job_id", ingestJob.JobID).
		Str("household_id", ingestJob.HouseholdID).
		Str("gcs_uri", ingestJob.GCSURI).
		Msg("Processing ingest job")

	res, err := s.IngestFromGCS(ctx, Request{HouseholdID: ingestJob.HouseholdID, AccountID: ingestJob.AccountID}, ingestJob.GCSURI)
	if err != nil {
		return err
	}
	ingestJob.RowsImported = res.Imported
	ingestJob.RowsSkipped = res.Skipped
	return nil
}
