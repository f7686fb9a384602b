package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/gcsuploader"
	"github.com/dvloznov/finance-advisor/internal/ingest"
	"github.com/dvloznov/finance-advisor/internal/jobs"
)

// maxUploadBytes caps CSV uploads.
const maxUploadBytes = 32 << 20

// CSVImporter imports a CSV statement synchronously.
type CSVImporter interface {
	IngestCSV(ctx context.Context, req ingest.Request, r io.Reader) (ingest.Result, error)
}

var _ CSVImporter = (*ingest.Service)(nil)

// IngestHandler handles /api/ingest endpoints.
type IngestHandler struct {
	importer  CSVImporter
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewIngestHandler creates a new ingest handler. publisher may be nil, in
// which case GCS ingestion is unavailable.
func NewIngestHandler(importer CSVImporter, publisher jobs.Publisher, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{importer: importer, publisher: publisher, log: log}
}

// IngestCSV handles POST /api/ingest/csv. The CSV is either the "file" part
// of a multipart form or the raw request body.
func (h *IngestHandler) IngestCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	query := r.URL.Query()
	req := ingest.Request{
		HouseholdID: middleware.HouseholdID(r),
		AccountID:   query.Get("accountId"),
		AccountKind: domain.AccountKind(query.Get("accountType")),
	}

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()
		body = file

		if req.HouseholdID == "" {
			req.HouseholdID = r.FormValue("householdId")
		}
		if v := r.FormValue("accountId"); v != "" {
			req.AccountID = v
		}
		if v := r.FormValue("accountType"); v != "" {
			req.AccountKind = domain.AccountKind(v)
		}
	}

	result, err := h.importer.IngestCSV(r.Context(), req, body)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to import CSV")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// IngestGCS handles POST /api/ingest/gcs by enqueueing an import job.
func (h *IngestHandler) IngestGCS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HouseholdID string `json:"householdId"`
		AccountID   string `json:"accountId"`
		GCSURI      string `json:"gcsUri"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	householdID := householdFrom(r, req.HouseholdID)
	if householdID == "" || req.AccountID == "" || req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "householdId, accountId and gcsUri are required")
		return
	}
	if _, _, err := gcsuploader.ParseURI(req.GCSURI); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is not configured")
		return
	}

	job := &jobs.IngestCSVJob{
		HouseholdID: householdID,
		AccountID:   req.AccountID,
		GCSURI:      req.GCSURI,
	}
	if err := h.publisher.PublishIngestCSV(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingest job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingest job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", req.GCSURI).Msg("Ingest job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": job.GCSURI,
		"status":  string(job.Status),
	})
}
