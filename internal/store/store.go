// Package store persists generated datasets into a SQL database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/rgehrsitz/kpisynth/internal/output"
)

//go:embed schema.sql
var schemaSQL string

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// Store writes datasets through database/sql
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the tables if missing.
// driver accepts sqlite3 (or sqlite), mysql (or mariadb) and pgx (or postgres).
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver, err := normalizeDriver(driver)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	case DriverMySQL:
		if dsn, err = toMySQLDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	s := &Store{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func normalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return DriverSQLite, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// toMySQLDSN converts mysql:// and mariadb:// URLs into the driver's DSN format
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	name := strings.TrimPrefix(u.Path, "/")
	if user == "" || u.Host == "" || name == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", user, pass, u.Host, name), nil
}

// initSchema runs the embedded DDL one statement at a time
func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Driver returns the normalized driver name
func (s *Store) Driver() string {
	return s.driver
}

// SaveDataset writes the run and its three tables in one transaction.
// Rows of an earlier save with the same run ID are replaced.
func (s *Store) SaveDataset(ctx context.Context, ds *domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", output.TableOrgHierarchy, output.TableAccountsDim, output.TableSalesMonthly} {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE run_id = ?"), ds.RunID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (run_id, seed, year, accounts, records, skipped)
		VALUES (?, ?, ?, ?, ?, ?)
	`), ds.RunID, ds.Seed, ds.Year, len(ds.Accounts), len(ds.Records), len(ds.Skipped)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, t := range output.Tables(ds) {
		if err := s.insertTable(ctx, tx, ds.RunID, t); err != nil {
			return fmt.Errorf("failed to insert %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

func (s *Store) insertTable(ctx context.Context, tx *sql.Tx, runID string, t output.Table) error {
	columns := append([]string{"run_id"}, t.Header...)
	for i, c := range columns {
		if c == "date" {
			columns[i] = "period_date"
		}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := s.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(columns, ", "), placeholders))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(columns))
	for _, row := range t.Rows {
		args[0] = runID
		for i, v := range row {
			args[i+1] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Run is one persisted generation run
type Run struct {
	RunID    string
	Seed     int64
	Year     int
	Accounts int
	Records  int
	Skipped  int
}

// Runs lists persisted runs ordered by year and seed
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seed, year, accounts, records, skipped
		FROM runs ORDER BY year, seed, run_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Seed, &r.Year, &r.Accounts, &r.Records, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CountRows returns the number of rows a run has in one of the dataset tables
func (s *Store) CountRows(ctx context.Context, table, runID string) (int, error) {
	switch table {
	case output.TableOrgHierarchy, output.TableAccountsDim, output.TableSalesMonthly:
	default:
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM "+table+" WHERE run_id = ?"), runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
