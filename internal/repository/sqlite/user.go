package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/jobboard/pkg/models"
)

const userColumns = `id, nullifier_hash, wallet_address, nickname, profile_picture_url, contact_info, professional_info, preferences, links_generated, payments_processed, rating, created, updated`

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO users (nullifier_hash, wallet_address, nickname, profile_picture_url, contact_info, professional_info, preferences, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullable(u.NullifierHash), nullable(u.WalletAddress), u.Nickname, u.ProfilePictureURL,
		marshalJSON(u.ContactInfo), marshalJSON(u.ProfessionalInfo), marshalJSON(u.Preferences), ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByNullifier(ctx context.Context, hash string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE nullifier_hash = ?`, hash)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByWallet(ctx context.Context, address string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = ?`, address)
	return scanUser(row)
}

// UpdateUserProfile persists only the client-settable profile fields.
func (r *SQLiteRepo) UpdateUserProfile(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE users SET nickname = ?, contact_info = ?, professional_info = ?, preferences = ?, updated = ? WHERE id = ?`,
		u.Nickname, marshalJSON(u.ContactInfo), marshalJSON(u.ProfessionalInfo), marshalJSON(u.Preferences), now(), u.ID)
	return err
}

func (r *SQLiteRepo) IncrementLinksGenerated(ctx context.Context, userID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET links_generated = links_generated + 1, updated = ? WHERE id = ?`, now(), userID)
	return err
}

func (r *SQLiteRepo) IncrementPaymentsProcessed(ctx context.Context, userID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET payments_processed = payments_processed + 1, updated = ? WHERE id = ?`, now(), userID)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var nullifier, wallet sql.NullString
	var contact, professional, prefs string
	if err := row.Scan(&u.ID, &nullifier, &wallet, &u.Nickname, &u.ProfilePictureURL, &contact, &professional, &prefs,
		&u.Stats.LinksGenerated, &u.Stats.PaymentsProcessed, &u.Stats.Rating, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if nullifier.Valid {
		u.NullifierHash = nullifier.String
	}
	if wallet.Valid {
		u.WalletAddress = wallet.String
	}
	unmarshalJSON(contact, &u.ContactInfo)
	unmarshalJSON(professional, &u.ProfessionalInfo)
	unmarshalJSON(prefs, &u.Preferences)

	return &u, nil
}

// nullable maps the empty string to NULL so the sparse unique indexes on
// nullifier_hash and wallet_address ignore absent identities.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
