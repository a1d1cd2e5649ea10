package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

const txColumns = `id, user_id, type, amount, status, reference, provider_tx_id, job_id, chat_id, created, updated`

func (r *SQLiteRepo) CreateTransaction(ctx context.Context, t *models.Transaction) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("transaction is nil")
	}
	if t.Reference == "" {
		return 0, fmt.Errorf("transaction reference is empty")
	}
	if t.Status == "" {
		t.Status = models.TxPending
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO transactions (user_id, type, amount, status, reference, provider_tx_id, job_id, chat_id, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Type, t.Amount, t.Status, t.Reference, t.ProviderTxID, t.JobID, t.ChatID, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (r *SQLiteRepo) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE reference = ?`, reference)
	return scanTransaction(row)
}

// SetStatusByReference settles a PENDING transaction and records the provider
// transaction id, returning the updated row. Rows already COMPLETED or FAILED
// are returned unchanged; unknown references return nil.
func (r *SQLiteRepo) SetStatusByReference(ctx context.Context, reference, status, providerTxID string) (*models.Transaction, error) {
	_, err := r.conn.Exec(ctx, `UPDATE transactions SET status = ?, provider_tx_id = ?, updated = ? WHERE reference = ? AND status = ?`,
		status, providerTxID, now(), reference, models.TxPending)
	if err != nil {
		return nil, err
	}

	return r.GetTransactionByReference(ctx, reference)
}

func (r *SQLiteRepo) ListByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+txColumns+` FROM transactions WHERE user_id = ? ORDER BY created DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CompletedTotals(ctx context.Context, userID int64) (*repository.CompletedTotals, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1), COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = ? AND status = ?`, userID, models.TxCompleted)
	var ct repository.CompletedTotals
	if err := row.Scan(&ct.Count, &ct.Sum); err != nil {
		return nil, err
	}

	return &ct, nil
}

// FailStalePending marks PENDING transactions created before olderThan as
// FAILED and returns how many rows were touched.
func (r *SQLiteRepo) FailStalePending(ctx context.Context, olderThan int64) (int64, error) {
	res, err := r.conn.Exec(ctx, `UPDATE transactions SET status = ?, updated = ? WHERE status = ? AND created < ?`,
		models.TxFailed, now(), models.TxPending, olderThan)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func scanTransaction(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	var jobID, chatID sql.NullInt64
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Reference, &t.ProviderTxID, &jobID, &chatID, &t.Created, &t.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if jobID.Valid {
		t.JobID = &jobID.Int64
	}
	if chatID.Valid {
		t.ChatID = &chatID.Int64
	}

	return &t, nil
}

func scanTransactionRows(rows *sql.Rows) (*models.Transaction, error) {
	var t models.Transaction
	var jobID, chatID sql.NullInt64
	if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status, &t.Reference, &t.ProviderTxID, &jobID, &chatID, &t.Created, &t.Updated); err != nil {
		return nil, err
	}

	if jobID.Valid {
		t.JobID = &jobID.Int64
	}
	if chatID.Valid {
		t.ChatID = &chatID.Int64
	}

	return &t, nil
}
