package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/levenlabs/go-lflag"
	_ "modernc.org/sqlite"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// SQLiteProvider implements the Database interface on a local SQLite file.
// Rows hold the same JSON blobs as the Firestore documents, keyed by site and
// day or month.
type SQLiteProvider struct {
	conn *sql.DB
	path string
}

// configuredSQLite sets up the SQLite provider.
func configuredSQLite() *SQLiteProvider {
	path := lflag.String("sqlite-path", "qldtariffs.db", "Path to the SQLite database file")

	s := &SQLiteProvider{}
	lflag.Do(func() {
		s.path = *path
	})
	return s
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLiteProvider, error) {
	s := &SQLiteProvider{path: path}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the provider is properly configured.
func (s *SQLiteProvider) Validate() error {
	if s.path == "" {
		return fmt.Errorf("sqlite-path is required")
	}
	return nil
}

// Init opens the database and creates the schema.
func (s *SQLiteProvider) Init(ctx context.Context) error {
	conn, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.conn = conn
	if err := s.initSchema(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteProvider) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_usage (
		site_id TEXT NOT NULL,
		day TEXT NOT NULL,
		json TEXT NOT NULL,
		PRIMARY KEY (site_id, day)
	);
	CREATE TABLE IF NOT EXISTS monthly_usage (
		site_id TEXT NOT NULL,
		month TEXT NOT NULL,
		json TEXT NOT NULL,
		PRIMARY KEY (site_id, month)
	);
	`
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteProvider) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLiteProvider) upsert(ctx context.Context, query, siteID string, rows map[string]any) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for key, v := range rows {
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, siteID, key, string(jsonBytes)); err != nil {
			return fmt.Errorf("upserting %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func queryJSON[T any](ctx context.Context, conn *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var jsonStr string
		if err := rows.Scan(&jsonStr); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var v T
		if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertDailyUsage inserts or replaces each day.
func (s *SQLiteProvider) UpsertDailyUsage(ctx context.Context, siteID string, days []types.DailyUsage) error {
	if err := checkSiteID(siteID); err != nil {
		return err
	}
	rows := make(map[string]any, len(days))
	for _, day := range days {
		rows[day.Date.String()] = day
	}
	return s.upsert(ctx, `
	INSERT INTO daily_usage (site_id, day, json) VALUES (?, ?, ?)
	ON CONFLICT (site_id, day) DO UPDATE SET json = excluded.json
	`, siteID, rows)
}

// GetDailyUsage retrieves the stored days in [start, end).
func (s *SQLiteProvider) GetDailyUsage(ctx context.Context, siteID string, start, end civil.Date) ([]types.DailyUsage, error) {
	if err := checkSiteID(siteID); err != nil {
		return nil, err
	}
	return queryJSON[types.DailyUsage](ctx, s.conn, `
	SELECT json FROM daily_usage
	WHERE site_id = ? AND day >= ? AND day < ?
	ORDER BY day
	`, siteID, start.String(), end.String())
}

// UpsertMonthSummaries inserts or replaces each month.
func (s *SQLiteProvider) UpsertMonthSummaries(ctx context.Context, siteID string, months []types.MonthSummary) error {
	if err := checkSiteID(siteID); err != nil {
		return err
	}
	rows := make(map[string]any, len(months))
	for _, month := range months {
		rows[month.Month.String()] = month
	}
	return s.upsert(ctx, `
	INSERT INTO monthly_usage (site_id, month, json) VALUES (?, ?, ?)
	ON CONFLICT (site_id, month) DO UPDATE SET json = excluded.json
	`, siteID, rows)
}

// GetMonthSummaries retrieves the stored months in [start, end).
func (s *SQLiteProvider) GetMonthSummaries(ctx context.Context, siteID string, start, end types.MonthKey) ([]types.MonthSummary, error) {
	if err := checkSiteID(siteID); err != nil {
		return nil, err
	}
	return queryJSON[types.MonthSummary](ctx, s.conn, `
	SELECT json FROM monthly_usage
	WHERE site_id = ? AND month >= ? AND month < ?
	ORDER BY month
	`, siteID, start.String(), end.String())
}

// GetMonthSummary retrieves a single stored month.
func (s *SQLiteProvider) GetMonthSummary(ctx context.Context, siteID string, month types.MonthKey) (types.MonthSummary, error) {
	if err := checkSiteID(siteID); err != nil {
		return types.MonthSummary{}, err
	}
	var jsonStr string
	err := s.conn.QueryRowContext(ctx, `
	SELECT json FROM monthly_usage WHERE site_id = ? AND month = ?
	`, siteID, month.String()).Scan(&jsonStr)
	if errors.Is(err, sql.ErrNoRows) {
		return types.MonthSummary{}, fmt.Errorf("month %s: %w", month, ErrNotFound)
	}
	if err != nil {
		return types.MonthSummary{}, fmt.Errorf("querying month: %w", err)
	}

	var summary types.MonthSummary
	if err := json.Unmarshal([]byte(jsonStr), &summary); err != nil {
		return types.MonthSummary{}, fmt.Errorf("failed to unmarshal month %s: %w", month, err)
	}
	return summary, nil
}
