package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/jobboard/pkg/models"
)

func (r *SQLiteRepo) CreateChat(ctx context.Context, c *models.Chat) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("chat is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO chats (user_id, job_id, transaction_id, created, updated) VALUES (?, ?, ?, ?, ?)`,
		c.UserID, c.JobID, c.TransactionID, ts, ts)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// bind the paying transaction to this chat so it cannot pay for another
	if _, err := r.conn.Exec(ctx, `UPDATE transactions SET chat_id = ?, updated = ? WHERE id = ?`, id, ts, c.TransactionID); err != nil {
		return 0, err
	}

	return id, nil
}

// GetChatByID loads the chat and its messages in stored order.
func (r *SQLiteRepo) GetChatByID(ctx context.Context, id int64) (*models.Chat, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, job_id, transaction_id, created, updated FROM chats WHERE id = ?`, id)
	var c models.Chat
	var jobID sql.NullInt64
	if err := row.Scan(&c.ID, &c.UserID, &jobID, &c.TransactionID, &c.Created, &c.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if jobID.Valid {
		c.JobID = &jobID.Int64
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, chat_id, role, content, created FROM chat_messages WHERE chat_id = ? ORDER BY created ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Created); err != nil {
			return nil, err
		}
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *SQLiteRepo) ListChatsByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, job_id, transaction_id, created, updated FROM chats WHERE user_id = ? ORDER BY updated DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Chat
	for rows.Next() {
		var c models.Chat
		var jobID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.UserID, &jobID, &c.TransactionID, &c.Created, &c.Updated); err != nil {
			return nil, err
		}
		if jobID.Valid {
			c.JobID = &jobID.Int64
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) AppendMessage(ctx context.Context, m *models.ChatMessage) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}

	ts := now()
	if m.Created == 0 {
		m.Created = ts
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO chat_messages (chat_id, role, content, created) VALUES (?, ?, ?, ?)`,
		m.ChatID, m.Role, m.Content, m.Created)
	if err != nil {
		return 0, err
	}

	if _, err := r.conn.Exec(ctx, `UPDATE chats SET updated = ? WHERE id = ?`, ts, m.ChatID); err != nil {
		return 0, err
	}

	return res.LastInsertId()
}
