package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/internal/models"
)

// AddUser registers a Telegram user. A known id yields ErrUserAlreadyExists,
// detected from the driver's uniqueness violation.
func (s *Store) AddUser(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{ID: id, CreatedAt: s.now()}
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO users (id, created_at) VALUES (?, ?)`), u.ID, u.CreatedAt)
		return err
	})
	if database.IsUniqueViolation(err) {
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, s.fail(ctx, "add_user", err, slog.Int64("user_id", id))
	}
	return u, nil
}

// EnsureUser registers the user when missing and reports whether it did.
func (s *Store) EnsureUser(ctx context.Context, id int64) (bool, error) {
	_, err := s.AddUser(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserAlreadyExists):
		return false, nil
	default:
		return false, err
	}
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	})
	return n, s.fail(ctx, "count_users", err)
}

// DeleteUser removes the user together with everything the user owns.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"bugs", "links", "rubrics"} {
			if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
				return err
			}
		}
		return deleteRow(ctx, tx, "users", id, 0)
	})
	return s.fail(ctx, "delete_user", err, slog.Int64("user_id", id))
}
