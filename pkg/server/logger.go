package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mikeboe/research-agent/pkg/database"
)

// DBLogHandler is a slog.Handler that writes records to the research_logs
// table, keyed by job, so a job's full log trail is queryable over the API.
type DBLogHandler struct {
	DB    *database.PostgresDB
	JobID uuid.UUID

	attrs []slog.Attr
}

func NewDBLogHandler(db *database.PostgresDB, jobID uuid.UUID) *DBLogHandler {
	return &DBLogHandler{DB: db, JobID: jobID}
}

func (h *DBLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *DBLogHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	metaJSON, err := json.Marshal(attrs)
	if err != nil {
		metaJSON = []byte("{}")
	}

	query := `
		INSERT INTO research_logs (job_id, timestamp, level, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Background context so log rows persist even if the request context
	// is already cancelled.
	_, err = h.DB.Pool.Exec(context.Background(), query, h.JobID, r.Time, r.Level.String(), r.Message, metaJSON)
	return err
}

func (h *DBLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &DBLogHandler{DB: h.DB, JobID: h.JobID, attrs: merged}
}

func (h *DBLogHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the metadata column is a single JSON object.
	return h
}
