package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

const userJobColumns = `id, user_id, job_id, status, generated_link, transaction_id, created, updated`

// UpsertStatus writes the (user, job) interaction status, keyed on the pair's
// unique index so repeated writes keep a single row.
func (r *SQLiteRepo) UpsertStatus(ctx context.Context, userID, jobID int64, status string) (*models.UserJob, error) {
	ts := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO user_jobs (user_id, job_id, status, created, updated) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, job_id) DO UPDATE SET status = excluded.status, updated = excluded.updated`,
		userID, jobID, status, ts, ts)
	if err != nil {
		return nil, err
	}

	return r.GetUserJob(ctx, userID, jobID)
}

// SetApplied marks the pair APPLIED, stamps the generated link, and attaches
// the paying transaction, creating the row if the user never touched the job.
func (r *SQLiteRepo) SetApplied(ctx context.Context, userID, jobID int64, link string, transactionID int64) (*models.UserJob, error) {
	if link == "" {
		return nil, fmt.Errorf("generated link is empty")
	}

	ts := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO user_jobs (user_id, job_id, status, generated_link, transaction_id, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, job_id) DO UPDATE SET status = excluded.status, generated_link = excluded.generated_link, transaction_id = excluded.transaction_id, updated = excluded.updated`,
		userID, jobID, models.UserJobApplied, link, transactionID, ts, ts)
	if err != nil {
		return nil, err
	}

	return r.GetUserJob(ctx, userID, jobID)
}

func (r *SQLiteRepo) GetUserJob(ctx context.Context, userID, jobID int64) (*models.UserJob, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userJobColumns+` FROM user_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID)
	var uj models.UserJob
	var txID sql.NullInt64
	if err := row.Scan(&uj.ID, &uj.UserID, &uj.JobID, &uj.Status, &uj.GeneratedLink, &txID, &uj.Created, &uj.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if txID.Valid {
		uj.TransactionID = &txID.Int64
	}

	return &uj, nil
}

// ListUserJobsByUser returns the user's interaction rows, optionally filtered
// by status, newest first.
func (r *SQLiteRepo) ListUserJobsByUser(ctx context.Context, userID int64, status string) ([]models.UserJob, error) {
	query := `SELECT ` + userJobColumns + ` FROM user_jobs WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY updated DESC`

	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserJob
	for rows.Next() {
		var uj models.UserJob
		var txID sql.NullInt64
		if err := rows.Scan(&uj.ID, &uj.UserID, &uj.JobID, &uj.Status, &uj.GeneratedLink, &txID, &uj.Created, &uj.Updated); err != nil {
			return nil, err
		}
		if txID.Valid {
			uj.TransactionID = &txID.Int64
		}
		out = append(out, uj)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountByStatus(ctx context.Context, userID int64) (repository.StatusCounts, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT status, COUNT(1) FROM user_jobs WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := repository.StatusCounts{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

// ListGeneratedLinks returns APPLIED rows joined with their job and paying
// transaction summaries, newest first.
func (r *SQLiteRepo) ListGeneratedLinks(ctx context.Context, userID int64) ([]repository.GeneratedLink, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT uj.id, uj.user_id, uj.job_id, uj.status, uj.generated_link, uj.transaction_id, uj.created, uj.updated,
			j.id, j.title, j.company, j.location, j.job_type, j.category,
			t.id, t.type, t.amount, t.status, t.reference
		FROM user_jobs uj
		JOIN jobs j ON j.id = uj.job_id
		LEFT JOIN transactions t ON t.id = uj.transaction_id
		WHERE uj.user_id = ? AND uj.status = ? AND uj.generated_link != ''
		ORDER BY uj.updated DESC`, userID, models.UserJobApplied)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.GeneratedLink
	for rows.Next() {
		var gl repository.GeneratedLink
		var uj models.UserJob
		var txID sql.NullInt64
		var job models.Job
		var tID sql.NullInt64
		var tType, tStatus, tRef sql.NullString
		var tAmount sql.NullFloat64
		if err := rows.Scan(&uj.ID, &uj.UserID, &uj.JobID, &uj.Status, &uj.GeneratedLink, &txID, &uj.Created, &uj.Updated,
			&job.ID, &job.Title, &job.Company, &job.Location, &job.JobType, &job.Category,
			&tID, &tType, &tAmount, &tStatus, &tRef); err != nil {
			return nil, err
		}
		if txID.Valid {
			uj.TransactionID = &txID.Int64
		}
		gl.UserJob = uj
		gl.Job = &job
		if tID.Valid {
			gl.Transaction = &models.Transaction{
				ID:        tID.Int64,
				Type:      tType.String,
				Amount:    tAmount.Float64,
				Status:    tStatus.String,
				Reference: tRef.String,
			}
		}
		out = append(out, gl)
	}

	return out, rows.Err()
}
