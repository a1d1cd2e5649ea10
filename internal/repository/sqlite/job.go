package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

const jobColumns = `id, title, company, description, requirements, salary_min, salary_max, salary_currency, location, remote, job_type, category, active, posted, updated`

// ListJobs applies the catalog filters and page/limit pagination, returning
// the page of jobs plus the total match count. Only active listings are
// considered.
func (r *SQLiteRepo) ListJobs(ctx context.Context, f repository.JobFilter) ([]models.Job, int64, error) {
	where := []string{"active = 1"}
	args := []any{}

	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, `(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(company) LIKE ? OR LOWER(category) LIKE ?)`)
		args = append(args, like, like, like, like)
	}
	if f.Category != "" {
		where = append(where, `category = ?`)
		args = append(args, f.Category)
	}
	if f.JobType != "" {
		where = append(where, `job_type = ?`)
		args = append(args, f.JobType)
	}
	if f.Location != "" {
		where = append(where, `LOWER(location) LIKE ?`)
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Remote != nil {
		where = append(where, `remote = ?`)
		args = append(args, boolToInt(*f.Remote))
	}
	if f.MinSalary > 0 {
		// a job matches when its range can reach the requested floor, so
		// a 40k-60k listing still shows up for min_salary=50000
		where = append(where, `salary_max >= ?`)
		args = append(args, f.MinSalary)
	}

	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM jobs WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	queryArgs := append(args, limit, offset)
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM jobs WHERE `+clause+` ORDER BY posted DESC, id DESC LIMIT ? OFFSET ?`, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *j)
	}

	return out, total, rows.Err()
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepo) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM jobs`).Scan(&n)
	return n, err
}

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}

	ts := now()
	if j.Posted == 0 {
		j.Posted = ts
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO jobs (title, company, description, requirements, salary_min, salary_max, salary_currency, location, remote, job_type, category, active, posted, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Title, j.Company, j.Description, marshalJSON(j.Requirements), j.SalaryMin, j.SalaryMax, j.SalaryCurrency,
		j.Location, boolToInt(j.Remote), j.JobType, j.Category, boolToInt(j.Active), j.Posted, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// RecentJobs returns the newest active listings, used as ambient context for
// AI chats that are not tied to a specific job.
func (r *SQLiteRepo) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM jobs WHERE active = 1 ORDER BY posted DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) DeactivateJob(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE jobs SET active = 0, updated = ? WHERE id = ?`, now(), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var reqs string
	var remote, active int
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Description, &reqs, &j.SalaryMin, &j.SalaryMax, &j.SalaryCurrency,
		&j.Location, &remote, &j.JobType, &j.Category, &active, &j.Posted, &j.Updated); err != nil {
		return nil, err
	}

	j.Remote = remote == 1
	j.Active = active == 1
	unmarshalJSON(reqs, &j.Requirements)

	return &j, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
