// Package sqlite stores the static county irradiance table that backs the
// choropleth when a refresh feed does not carry its own county values.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/solar-map-service/internal/domain"
)

const migration = `
CREATE TABLE IF NOT EXISTS counties (
	fips       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	state      TEXT NOT NULL,
	irradiance REAL NOT NULL DEFAULT 0
);
`

// CountyStore implements domain.CountyLookup on modernc.org/sqlite.
type CountyStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the database at dsn and creates the schema. A single connection
// is kept so in-memory databases survive between queries.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*CountyStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &CountyStore{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *CountyStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces counties in one transaction.
func (s *CountyStore) Upsert(ctx context.Context, counties []domain.County) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO counties (fips, name, state, irradiance) VALUES (?, ?, ?, ?)
		ON CONFLICT(fips) DO UPDATE SET name = excluded.name, state = excluded.state, irradiance = excluded.irradiance`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range counties {
		if _, err := stmt.ExecContext(ctx, c.FIPS, c.Name, c.State, domain.SafeIrradiance(c.Irradiance)); err != nil {
			return fmt.Errorf("sqlite: upsert county %s: %w", c.FIPS, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Seed loads a fips,name,state,irradiance CSV. Rows without a FIPS code are
// skipped; a blank irradiance is stored as 0.
func (s *CountyStore) Seed(ctx context.Context, r io.Reader) (int, error) {
	counties, err := parseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.Upsert(ctx, counties); err != nil {
		return 0, err
	}
	return len(counties), nil
}

// SeedFile opens path and calls Seed.
func (s *CountyStore) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open county seed: %w", err)
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// Irradiance implements domain.CountyLookup.
func (s *CountyStore) Irradiance(fips string) (float64, bool) {
	var v float64
	err := s.db.QueryRowContext(context.Background(),
		`SELECT irradiance FROM counties WHERE fips = ?`, fips).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false
	}
	if err != nil {
		s.logger.Warn("county lookup failed", "fips", fips, "error", err)
		return 0, false
	}
	return v, true
}

// Counties implements domain.CountyLookup. Rows come back in FIPS order.
func (s *CountyStore) Counties() []domain.County {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT fips, name, state, irradiance FROM counties ORDER BY fips`)
	if err != nil {
		s.logger.Warn("list counties failed", "error", err)
		return nil
	}
	defer rows.Close()

	var out []domain.County
	for rows.Next() {
		var c domain.County
		if err := rows.Scan(&c.FIPS, &c.Name, &c.State, &c.Irradiance); err != nil {
			s.logger.Warn("scan county failed", "error", err)
			return nil
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("list counties failed", "error", err)
		return nil
	}
	return out
}

func parseCSV(r io.Reader) ([]domain.County, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read county csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("county csv is empty")
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["fips"]; !ok {
		return nil, errors.New("county csv has no fips column")
	}

	counties := make([]domain.County, 0, len(rows)-1)
	for _, row := range rows[1:] {
		c := domain.County{
			FIPS:  field(row, idx, "fips"),
			Name:  field(row, idx, "name"),
			State: field(row, idx, "state"),
		}
		if c.FIPS == "" {
			continue
		}
		if v := field(row, idx, "irradiance"); v != "" {
			irr, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("county %s: invalid irradiance %q", c.FIPS, v)
			}
			c.Irradiance = irr
		}
		counties = append(counties, c)
	}
	return counties, nil
}

func field(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
