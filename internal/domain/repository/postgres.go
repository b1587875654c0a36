package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reporter_service/internal/domain/model"
)

// Connect opens a Postgres pool and checks it is reachable.
func Connect(ctx context.Context, connStr string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// CallIssueQuery narrows the calls and issues loaded for a report. Zero dates
// leave the bound open; empty lists mean no filter.
type CallIssueQuery struct {
	Start      time.Time
	End        time.Time
	Categories []string
	Zips       []string
}

// CallIssueRepository reads calls and issues with their addresses and categories.
type CallIssueRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCallIssueRepository(db *sqlx.DB, logger *zap.Logger) *CallIssueRepository {
	return &CallIssueRepository{db: db, logger: logger}
}

// tableSpec describes how calls and issues differ in the schema.
type tableSpec struct {
	kind    string
	table   string
	dateCol string
	link    string
	linkFK  string
	title   string
}

var (
	callsTable = tableSpec{
		kind:    "call",
		table:   "calls",
		dateCol: "datetime_edit",
		link:    "calls_categories",
		linkFK:  "call_id",
		title:   "NULL",
	}
	issuesTable = tableSpec{
		kind:    "issue",
		table:   "issues",
		dateCol: "created_at",
		link:    "categories_issues",
		linkFK:  "issue_id",
		title:   "t.title",
	}
)

type callIssueRow struct {
	ID         int64           `db:"id"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  sql.NullTime    `db:"updated_at"`
	Title      sql.NullString  `db:"title"`
	Street     sql.NullString  `db:"street"`
	UnitNumber sql.NullString  `db:"unit_number"`
	City       sql.NullString  `db:"city"`
	State      sql.NullString  `db:"state"`
	Zip        sql.NullString  `db:"zip"`
	Lat        sql.NullFloat64 `db:"lat"`
	Lon        sql.NullFloat64 `db:"lon"`
	Categories pq.StringArray  `db:"categories"`
}

func (row callIssueRow) toModel(kind string) model.CallIssue {
	ci := model.CallIssue{
		ID:         row.ID,
		Kind:       kind,
		CreatedAt:  row.CreatedAt,
		Title:      row.Title.String,
		Categories: []string(row.Categories),
		Street:     row.Street.String,
		UnitNumber: row.UnitNumber.String,
		City:       row.City.String,
		State:      row.State.String,
		Zip:        row.Zip.String,
	}
	if row.UpdatedAt.Valid {
		ci.UpdatedAt = row.UpdatedAt.Time
	}
	if row.Lat.Valid && row.Lon.Valid {
		lat, lon := row.Lat.Float64, row.Lon.Float64
		ci.Lat, ci.Lon = &lat, &lon
	}
	return ci
}

// buildCallIssueQuery returns the query for one table with bind variables still
// in '?' form, and its arguments. The end date is inclusive.
func buildCallIssueQuery(t tableSpec, q CallIssueQuery) (string, []interface{}, error) {
	var (
		where []string
		args  []interface{}
	)
	if !q.Start.IsZero() {
		where = append(where, fmt.Sprintf("t.%s >= ?", t.dateCol))
		args = append(args, q.Start)
	}
	if !q.End.IsZero() {
		where = append(where, fmt.Sprintf("t.%s < ?", t.dateCol))
		args = append(args, q.End.AddDate(0, 0, 1))
	}
	if len(q.Categories) > 0 {
		where = append(where, fmt.Sprintf(
			"t.id IN (SELECT l2.%s FROM %s l2 JOIN categories c2 ON c2.id = l2.category_id WHERE c2.name IN (?))",
			t.linkFK, t.link))
		args = append(args, q.Categories)
	}
	if len(q.Zips) > 0 {
		where = append(where, "a.zip IN (?)")
		args = append(args, q.Zips)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT t.id, t.%s AS created_at, t.updated_at, %s AS title,
	a.street, a.unit_number, a.city, a.state, a.zip, a.lat, a.lon,
	array_remove(array_agg(DISTINCT c.name), NULL) AS categories
FROM %s t
JOIN addresses a ON a.id = t.address_id
LEFT JOIN %s l ON l.%s = t.id
LEFT JOIN categories c ON c.id = l.category_id`, t.dateCol, t.title, t.table, t.link, t.linkFK)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, "\nGROUP BY t.id, a.id\nORDER BY t.%s, t.id", t.dateCol)

	query, args, err := sqlx.In(b.String(), args...)
	if err != nil {
		return "", nil, fmt.Errorf("failed to expand %s filters: %w", t.table, err)
	}
	return query, args, nil
}

// Find loads calls and issues matching q. The two tables are queried concurrently;
// calls come first in the result.
func (r *CallIssueRepository) Find(ctx context.Context, q CallIssueQuery) ([]model.CallIssue, error) {
	var calls, issues []model.CallIssue
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		calls, err = r.find(gctx, callsTable, q)
		return err
	})
	g.Go(func() error {
		var err error
		issues, err = r.find(gctx, issuesTable, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.logger.Debug("loaded calls and issues", zap.Int("calls", len(calls)), zap.Int("issues", len(issues)))
	return append(calls, issues...), nil
}

func (r *CallIssueRepository) find(ctx context.Context, t tableSpec, q CallIssueQuery) ([]model.CallIssue, error) {
	query, args, err := buildCallIssueQuery(t, q)
	if err != nil {
		return nil, err
	}
	var rows []callIssueRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	out := make([]model.CallIssue, len(rows))
	for i, row := range rows {
		out[i] = row.toModel(t.kind)
	}
	return out, nil
}

// CategoryNames returns every category name in alphabetical order.
func (r *CallIssueRepository) CategoryNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.SelectContext(ctx, &names, `SELECT name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return names, nil
}

// Ping checks the pool, for health checks.
func (r *CallIssueRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
