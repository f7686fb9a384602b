// Package bigquery implements the ledger store on BigQuery.
//
// Reads are parameterized queries against fully qualified tables. Append-only
// records (transactions, insights, chat messages) use the streaming inserter;
// records that are later updated go through DML so they never sit in the
// streaming buffer.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-advisor/internal/ledger"
)

const (
	DefaultDatasetID = "finance"

	transactionsTable = "transactions"
	householdsTable   = "households"
	accountsTable     = "accounts"
	liabilitiesTable  = "liabilities"
	policiesTable     = "insurance_policies"
	assetsTable       = "assets"
	actionsTable      = "recommendation_actions"
	insightsTable     = "insights"
	chatTable         = "chat_messages"
)

// Repository is the BigQuery ledger store. It holds one shared client for all
// operations.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewRepository creates a client for projectID and returns a repository over
// datasetID. An empty datasetID falls back to DefaultDatasetID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: project ID is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client. The repository takes
// ownership and closes it in Close. An empty projectID uses the client's project.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	if projectID == "" && client != nil {
		projectID = client.Project()
	}
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the backticked, fully qualified name of a table.
func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// exec runs a DML statement and returns the number of affected rows.
func (r *Repository) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}
	return affectedRows(status), nil
}

func affectedRows(status *bigquery.JobStatus) int64 {
	if status == nil || status.Statistics == nil {
		return 0
	}
	stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	if !ok {
		return 0
	}
	return stats.NumDMLAffectedRows
}

// read starts a parameterized query.
func (r *Repository) read(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	q := r.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

var _ ledger.Store = (*Repository)(nil)
