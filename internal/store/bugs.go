package store

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/notebot/internal/models"
)

const bugColumns = `id, message, created_at, is_shown, user_id`

// AddBug stores a bug report. b.ID and b.CreatedAt are filled on success.
func (s *Store) AddBug(ctx context.Context, b *models.Bug) error {
	createdAt := s.now()
	var id int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx,
			s.q(`INSERT INTO bugs (message, created_at, is_shown, user_id) VALUES (?, ?, ?, ?) RETURNING id`),
			b.Message, createdAt, false, b.UserID,
		).Scan(&id)
	})
	if err != nil {
		return s.fail(ctx, "add_bug", err, slog.Int64("user_id", b.UserID))
	}
	b.ID = id
	b.CreatedAt = createdAt
	b.Shown = false
	return nil
}

// FetchBugs lists bug reports oldest first, optionally only unseen ones.
func (s *Store) FetchBugs(ctx context.Context, unseenOnly bool) ([]models.Bug, error) {
	query := `SELECT ` + bugColumns + ` FROM bugs`
	args := []any{}
	if unseenOnly {
		query += ` WHERE is_shown = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at, id`

	bugs := []models.Bug{}
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &bugs, tx.Rebind(query), args...)
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_bugs", err)
	}
	return bugs, nil
}

// MarkAllBugsSeen flags every unseen report as shown and returns how many changed.
func (s *Store) MarkAllBugsSeen(ctx context.Context) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		n, err = affected(tx.ExecContext(ctx, tx.Rebind(`UPDATE bugs SET is_shown = ? WHERE is_shown = ?`), true, false))
		return err
	})
	if err != nil {
		return 0, s.fail(ctx, "mark_all_bugs_seen", err)
	}
	return n, nil
}
