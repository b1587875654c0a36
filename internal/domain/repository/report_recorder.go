package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"reporter_service/internal/domain/model"
)

type ReportRecorder interface {
	RecordReport(ctx context.Context, rec model.ReportRecord) error
}

// NopRecorder drops every record. It is used when saving reports is disabled.
type NopRecorder struct{}

func (NopRecorder) RecordReport(context.Context, model.ReportRecord) error { return nil }

type PostgresReportRecorder struct {
	db *sqlx.DB
}

func NewPostgresReportRecorder(db *sqlx.DB) *PostgresReportRecorder {
	return &PostgresReportRecorder{db: db}
}

// CreateReportExportsTable is the DDL for the table RecordReport writes to.
const CreateReportExportsTable = `
	CREATE TABLE IF NOT EXISTS report_exports (
		id           BIGSERIAL PRIMARY KEY,
		report_title TEXT NOT NULL DEFAULT '',
		geog         TEXT NOT NULL,
		start_date   DATE,
		end_date     DATE,
		categories   TEXT[],
		areas        TEXT[],
		area_counts  JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	)`

func (r *PostgresReportRecorder) RecordReport(ctx context.Context, rec model.ReportRecord) error {
	const query = `
		INSERT INTO report_exports (
			report_title, geog, start_date, end_date,
			categories, areas, area_counts, generated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)`

	countsJSON, err := json.Marshal(rec.Counts)
	if err != nil {
		return fmt.Errorf("failed to marshal area counts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		rec.Title, string(rec.Geography), rec.StartDate, rec.EndDate,
		pq.Array(rec.Categories), pq.Array(rec.Areas), countsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	return nil
}
