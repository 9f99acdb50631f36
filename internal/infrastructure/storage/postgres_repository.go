package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

const runsTable = "monitor_runs"

// Schema creates the run-history table.
const Schema = `CREATE TABLE IF NOT EXISTS monitor_runs (
    id               BIGSERIAL PRIMARY KEY,
    started_at       TIMESTAMPTZ NOT NULL,
    duration_ms      BIGINT NOT NULL,
    strategy         TEXT NOT NULL DEFAULT '',
    model_status     TEXT NOT NULL DEFAULT '',
    total_count      INTEGER NOT NULL,
    suspicious_count INTEGER NOT NULL,
    threat_level     TEXT NOT NULL,
    anomalies        INTEGER NOT NULL DEFAULT 0,
    error            TEXT NOT NULL DEFAULT '',
    items            JSONB NOT NULL DEFAULT '[]'
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists run reports into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres opens a lib/pq connection pool and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the run-history table if needed.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun inserts a report and returns its id.
func (r *PostgresRepository) SaveRun(ctx context.Context, report domain.RunReport) (int64, error) {
	if r.db == nil {
		return 0, nil
	}

	query, args, err := insertRunQuery(report)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecentRuns returns the newest reports first.
func (r *PostgresRepository) RecentRuns(ctx context.Context, limit uint64) ([]domain.RunReport, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := recentRunsQuery(limit)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var reports []domain.RunReport
	for rows.Next() {
		var (
			report     domain.RunReport
			durationMS int64
			items      []byte
			level      string
			status     string
		)
		if err := rows.Scan(&report.Timestamp, &durationMS, &report.Strategy, &status,
			&report.TotalCount, &report.SuspiciousCount, &level, &report.Anomalies, &report.Error, &items); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal(items, &report.Items); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode items: %w", err)
		}
		report.Duration = time.Duration(durationMS) * time.Millisecond
		report.ThreatLevel = domain.ThreatLevel(level)
		report.ModelStatus = domain.ModelStatus(status)
		reports = append(reports, report)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return reports, nil
}

func insertRunQuery(report domain.RunReport) (string, []any, error) {
	items := report.Items
	if items == nil {
		items = []domain.ScoredItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", nil, fmt.Errorf("marshal items: %w", err)
	}

	query, args, err := psql.Insert(runsTable).
		Columns("started_at", "duration_ms", "strategy", "model_status", "total_count",
			"suspicious_count", "threat_level", "anomalies", "error", "items").
		Values(report.Timestamp, report.Duration.Milliseconds(), report.Strategy, string(report.ModelStatus),
			report.TotalCount, report.SuspiciousCount, string(report.ThreatLevel), report.Anomalies, report.Error, payload).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

func recentRunsQuery(limit uint64) (string, []any, error) {
	if limit == 0 {
		limit = 20
	}
	query, args, err := psql.Select("started_at", "duration_ms", "strategy", "model_status", "total_count",
		"suspicious_count", "threat_level", "anomalies", "error", "items").
		From(runsTable).
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build select: %w", err)
	}
	return query, args, nil
}
