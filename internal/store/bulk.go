package store

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// BulkResult counts the rows removed by a bulk deletion.
type BulkResult struct {
	Links   int64
	Rubrics int64
}

// DeleteAllLinks removes every link of the user.
func (s *Store) DeleteAllLinks(ctx context.Context, userID int64) (BulkResult, error) {
	return s.bulk(ctx, "delete_all_links", userID, func(tx *sqlx.Tx, res *BulkResult) error {
		var err error
		res.Links, err = affected(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE user_id = ?`), userID))
		return err
	})
}

// DeleteAllRubrics removes every rubric of the user. Their links stay as
// non-rubric links.
func (s *Store) DeleteAllRubrics(ctx context.Context, userID int64) (BulkResult, error) {
	return s.bulk(ctx, "delete_all_rubrics", userID, func(tx *sqlx.Tx, res *BulkResult) error {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE links SET rubric_id = NULL WHERE user_id = ? AND rubric_id IS NOT NULL`), userID); err != nil {
			return err
		}
		var err error
		res.Rubrics, err = affected(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM rubrics WHERE user_id = ?`), userID))
		return err
	})
}

// DeleteAllRubricLinks removes the user's links that belong to a rubric.
func (s *Store) DeleteAllRubricLinks(ctx context.Context, userID int64) (BulkResult, error) {
	return s.bulk(ctx, "delete_all_rubric_links", userID, func(tx *sqlx.Tx, res *BulkResult) error {
		var err error
		res.Links, err = affected(tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM links WHERE user_id = ? AND rubric_id IS NOT NULL`), userID))
		return err
	})
}

// DeleteAllNonRubricLinks removes the user's links without a rubric.
func (s *Store) DeleteAllNonRubricLinks(ctx context.Context, userID int64) (BulkResult, error) {
	return s.bulk(ctx, "delete_all_non_rubric_links", userID, func(tx *sqlx.Tx, res *BulkResult) error {
		var err error
		res.Links, err = affected(tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM links WHERE user_id = ? AND rubric_id IS NULL`), userID))
		return err
	})
}

// DeleteAllData removes the user's links and rubrics. The user record and
// bug reports are kept.
func (s *Store) DeleteAllData(ctx context.Context, userID int64) (BulkResult, error) {
	return s.bulk(ctx, "delete_all_data", userID, func(tx *sqlx.Tx, res *BulkResult) error {
		var err error
		if res.Links, err = affected(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE user_id = ?`), userID)); err != nil {
			return err
		}
		res.Rubrics, err = affected(tx.ExecContext(ctx, tx.Rebind(`DELETE FROM rubrics WHERE user_id = ?`), userID))
		return err
	})
}

func (s *Store) bulk(ctx context.Context, op string, userID int64, fn func(tx *sqlx.Tx, res *BulkResult) error) (BulkResult, error) {
	var res BulkResult
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return fn(tx, &res)
	})
	if err != nil {
		return BulkResult{}, s.fail(ctx, op, err, slog.Int64("user_id", userID))
	}
	return res, nil
}
