package db

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/qri-io/jsonschema"
)

// Migrate applies migrations and optional seed files found in the repository.
// It creates a `schema_migrations` table to track applied migrations and applies
// any SQL files in `db/migrations/` that have not yet been recorded. The jobs
// catalog is seeded from seedFS only when the jobs table is empty.
func Migrate(ctx context.Context, d *DB, migrationFS embed.FS, seedFS embed.FS) error {
	// ensure migrations table exists
	if _, err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	// embedded migrations are provided under "migrations/..." in the top-level db package
	migDir := "migrations"

	entries, err := fs.ReadDir(migrationFS, migDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	// collect .sql files and sort
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	for _, fname := range files {
		// use filename (without extension) as migration version key
		version := strings.TrimSuffix(fname, path.Ext(fname))

		// check if already applied
		var count int
		row := d.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version)
		if row == nil {
			return fmt.Errorf("migration check query returned nil row for %s", version)
		}
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration applied count: %w", err)
		}
		if count > 0 {
			// already applied
			continue
		}

		// read and execute migration from embedded FS (use posix path.Join)
		p := path.Join(migDir, fname)
		b, err := fs.ReadFile(migrationFS, p)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", fname, err)
		}
		if _, err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("exec migration %s: %w", fname, err)
		}

		// record migration
		if _, err := d.Exec(ctx, `INSERT INTO schema_migrations (version, applied) VALUES (?, strftime('%s','now'))`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", fname, err)
		}
	}

	return SeedJobs(ctx, d, seedFS)
}

// seedJob mirrors the shape of entries in db/seed/jobs.json.
type seedJob struct {
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements"`
	SalaryMin      int64    `json:"salary_min"`
	SalaryMax      int64    `json:"salary_max"`
	SalaryCurrency string   `json:"salary_currency"`
	Location       string   `json:"location"`
	Remote         bool     `json:"remote"`
	JobType        string   `json:"job_type"`
	Category       string   `json:"category"`
}

// SeedJobs loads the static jobs catalog from seedFS when the jobs table is
// empty. The seed payload is validated against the embedded JSON schema
// before any insert. Individual insert failures are logged and skipped, not
// fatal to the batch.
func SeedJobs(ctx context.Context, d *DB, seedFS embed.FS) error {
	var count int64
	if err := d.QueryRow(ctx, `SELECT COUNT(1) FROM jobs`).Scan(&count); err != nil {
		return fmt.Errorf("count jobs: %w", err)
	}
	if count > 0 {
		return nil
	}

	data, err := fs.ReadFile(seedFS, path.Join("seed", "jobs.json"))
	if err != nil {
		return fmt.Errorf("read jobs seed: %w", err)
	}

	schemaBytes, err := fs.ReadFile(seedFS, path.Join("seed", "jobs_schema.json"))
	if err != nil {
		return fmt.Errorf("read jobs seed schema: %w", err)
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaBytes, rs); err != nil {
		return fmt.Errorf("parse jobs seed schema: %w", err)
	}
	keyErrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return fmt.Errorf("validate jobs seed: %w", err)
	}
	if len(keyErrs) > 0 {
		return fmt.Errorf("jobs seed does not match schema: %v", keyErrs[0])
	}

	var seeds []seedJob
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("decode jobs seed: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	inserted := 0
	for _, s := range seeds {
		reqs, _ := json.Marshal(s.Requirements)
		_, err := d.Exec(ctx, `INSERT INTO jobs (title, company, description, requirements, salary_min, salary_max, salary_currency, location, remote, job_type, category, active, posted, updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			s.Title, s.Company, s.Description, string(reqs), s.SalaryMin, s.SalaryMax, s.SalaryCurrency, s.Location, boolToInt(s.Remote), s.JobType, s.Category, now, now)
		if err != nil {
			d.logger.Error("seed job insert failed", slog.String("title", s.Title), slog.Any("err", err))
			continue
		}
		inserted++
	}

	d.logger.Info("seeded jobs catalog", slog.Int("inserted", inserted), slog.Int("total", len(seeds)))
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
