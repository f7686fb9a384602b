// Package jobs defines asynchronous ingestion jobs and the queue contracts
// used to run them.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestCSV imports a CSV statement stored in Cloud Storage.
	JobTypeIngestCSV JobType = "ingest_csv"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is scheduled again.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries applies when a published job does not set MaxRetries.
const DefaultMaxRetries = 3

// IngestCSVJob imports one CSV object into a household account.
type IngestCSVJob struct {
	JobID       string `json:"job_id"`
	HouseholdID string `json:"household_id"`
	AccountID   string `json:"account_id"`

	// GCSURI is the gs:// location of the CSV file.
	GCSURI string `json:"gcs_uri"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// RowsImported and RowsSkipped are set by the handler on success.
	RowsImported int `json:"rows_imported"`
	RowsSkipped  int `json:"rows_skipped"`

	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`
	MaxRetries int    `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *IngestCSVJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *IngestCSVJob) GetType() JobType {
	return JobTypeIngestCSV
}

// GetStatus implements the Job interface.
func (j *IngestCSVJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishIngestCSV(ctx context.Context, job *IngestCSVJob) error
	Close() error
}

// Consumer runs queued jobs.
type Consumer interface {
	// Start launches workers that call handler for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A non-nil error schedules a retry while
// retries remain.
type JobHandler func(ctx context.Context, job Job) error

// JobStore records job state. GetJob returns an error wrapping
// domain.ErrNotFound for unknown ids.
type JobStore interface {
	SaveJob(ctx context.Context, job *IngestCSVJob) error
	GetJob(ctx context.Context, jobID string) (*IngestCSVJob, error)
	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestCSVJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	HouseholdID string
	Status      JobStatus
	Limit       int
	Offset      int
}
