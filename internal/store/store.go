// Package store persists users, rubrics, links and bug reports. Every
// exported operation runs in exactly one transaction and scopes rubric and
// link access to the owning user.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/internal/models"
)

var (
	// ErrNotFound reports a missing record or one owned by another user.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate groups uniqueness conflicts.
	ErrDuplicate = errors.New("store: duplicate entity")
	// ErrUserAlreadyExists is returned by AddUser for a known user id.
	ErrUserAlreadyExists = fmt.Errorf("%w: user already exists", ErrDuplicate)
	// ErrRubricNameTaken is returned when the user already owns a rubric with that name.
	ErrRubricNameTaken = fmt.Errorf("%w: rubric name already taken", ErrDuplicate)
	// ErrInvalidArgumentCombination reports mutually exclusive options passed together.
	ErrInvalidArgumentCombination = errors.New("store: invalid argument combination")
)

// IsDuplicate reports whether err is one of the uniqueness conflicts.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// FetchOptions tunes reads. WithRelated eagerly loads a rubric's links or a
// link's rubric; without it those fields stay nil.
type FetchOptions struct {
	WithRelated bool
}

// Store is the sqlx-backed entity store.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{
		db: db,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return database.WithTx(ctx, s.db, fn)
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// fail wraps err with the operation name and logs it unless it is an
// expected domain outcome.
func (s *Store) fail(ctx context.Context, op string, err error, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidArgumentCombination) {
		return err
	}
	attrs = append([]slog.Attr{
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}, attrs...)
	logger.Error(ctx, "store", "store.failed", attrs...)
	return fmt.Errorf("%s: %w", op, err)
}

func notFoundOnNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// DeleteEntity removes the record behind e by primary key. Rubrics that
// still have links are refused by the foreign key; use DeleteRubric.
func (s *Store) DeleteEntity(ctx context.Context, e models.Entity) error {
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return deleteRow(ctx, tx, e.TableName(), e.PrimaryKey(), 0)
	})
	return s.fail(ctx, "delete_entity", err,
		slog.String("table", e.TableName()),
		slog.Int64("id", e.PrimaryKey()),
	)
}

// deleteRow deletes one row by id, optionally scoped to userID.
func deleteRow(ctx context.Context, tx *sqlx.Tx, table string, id, userID int64) error {
	query := "DELETE FROM " + table + " WHERE id = ?"
	args := []any{id}
	if userID != 0 {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
