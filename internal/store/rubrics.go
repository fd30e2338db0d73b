package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/internal/models"
)

const rubricColumns = `id, name, description, created_at, user_id`

// DispositionKind selects what happens to a deleted rubric's links.
type DispositionKind int

const (
	// DispositionSetNonRubric keeps the links and clears their rubric.
	DispositionSetNonRubric DispositionKind = iota
	// DispositionDeleteLinks deletes the links with the rubric.
	DispositionDeleteLinks
	// DispositionMigrate moves the links into another rubric.
	DispositionMigrate
)

// Disposition is the link policy applied by DeleteRubric.
type Disposition struct {
	Kind     DispositionKind
	TargetID int64
}

// SetNonRubric keeps the links as non-rubric links.
func SetNonRubric() Disposition { return Disposition{Kind: DispositionSetNonRubric} }

// DeleteLinks deletes the links together with the rubric.
func DeleteLinks() Disposition { return Disposition{Kind: DispositionDeleteLinks} }

// MigrateTo moves the links into the rubric with targetID.
func MigrateTo(targetID int64) Disposition {
	return Disposition{Kind: DispositionMigrate, TargetID: targetID}
}

// DispositionFromFlags maps the flag form (delete links, migrate target) to
// a Disposition. Passing both is ErrInvalidArgumentCombination.
func DispositionFromFlags(deleteLinks bool, migrateTo *int64) (Disposition, error) {
	switch {
	case deleteLinks && migrateTo != nil:
		return Disposition{}, ErrInvalidArgumentCombination
	case deleteLinks:
		return DeleteLinks(), nil
	case migrateTo != nil:
		return MigrateTo(*migrateTo), nil
	default:
		return SetNonRubric(), nil
	}
}

func (d Disposition) String() string {
	switch d.Kind {
	case DispositionSetNonRubric:
		return "set_non_rubric"
	case DispositionDeleteLinks:
		return "delete_links"
	case DispositionMigrate:
		return fmt.Sprintf("migrate_to:%d", d.TargetID)
	default:
		return fmt.Sprintf("unknown(%d)", int(d.Kind))
	}
}

func (d Disposition) validate(rubricID int64) error {
	switch d.Kind {
	case DispositionSetNonRubric, DispositionDeleteLinks:
		if d.TargetID != 0 {
			return ErrInvalidArgumentCombination
		}
		return nil
	case DispositionMigrate:
		if d.TargetID <= 0 || d.TargetID == rubricID {
			return ErrInvalidArgumentCombination
		}
		return nil
	default:
		return ErrInvalidArgumentCombination
	}
}

// AddRubric stores r for r.UserID after checking the name is unused by that
// user. A conflict, including one caught by the unique index, is
// ErrRubricNameTaken. r.ID and r.CreatedAt are filled on success.
func (s *Store) AddRubric(ctx context.Context, r *models.Rubric) error {
	createdAt := s.now()
	var id int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		taken, err := rubricNameTaken(ctx, tx, r.UserID, r.Name)
		if err != nil {
			return err
		}
		if taken {
			return ErrRubricNameTaken
		}
		return tx.QueryRowxContext(ctx,
			s.q(`INSERT INTO rubrics (name, description, created_at, user_id) VALUES (?, ?, ?, ?) RETURNING id`),
			r.Name, r.Description, createdAt, r.UserID,
		).Scan(&id)
	})
	if database.IsUniqueViolation(err) {
		err = ErrRubricNameTaken
	}
	if err != nil {
		return s.fail(ctx, "add_rubric", err, slog.Int64("user_id", r.UserID))
	}
	r.ID = id
	r.CreatedAt = createdAt
	return nil
}

// RubricNameAvailable reports whether the user owns no rubric named name.
func (s *Store) RubricNameAvailable(ctx context.Context, userID int64, name string) (bool, error) {
	var taken bool
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		taken, err = rubricNameTaken(ctx, tx, userID, name)
		return err
	})
	if err != nil {
		return false, s.fail(ctx, "rubric_name_available", err, slog.Int64("user_id", userID))
	}
	return !taken, nil
}

func rubricNameTaken(ctx context.Context, tx *sqlx.Tx, userID int64, name string) (bool, error) {
	var n int64
	err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM rubrics WHERE user_id = ? AND name = ?`), userID, name)
	return n > 0, err
}

// FetchRubric returns the user's rubric with id.
func (s *Store) FetchRubric(ctx context.Context, userID, id int64, opts FetchOptions) (*models.Rubric, error) {
	var r models.Rubric
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		if err := getRubric(ctx, tx, userID, id, &r); err != nil {
			return err
		}
		if !opts.WithRelated {
			return nil
		}
		r.Links = []models.Link{}
		return tx.SelectContext(ctx, &r.Links,
			tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE user_id = ? AND rubric_id = ? ORDER BY url, id`),
			userID, id)
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_rubric", err, slog.Int64("rubric_id", id))
	}
	return &r, nil
}

func getRubric(ctx context.Context, tx *sqlx.Tx, userID, id int64, dst *models.Rubric) error {
	err := tx.GetContext(ctx, dst,
		tx.Rebind(`SELECT `+rubricColumns+` FROM rubrics WHERE id = ? AND user_id = ?`), id, userID)
	return notFoundOnNoRows(err)
}

// FetchRubrics returns the user's rubrics ordered by name.
func (s *Store) FetchRubrics(ctx context.Context, userID int64, opts FetchOptions) ([]models.Rubric, error) {
	rubrics := []models.Rubric{}
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &rubrics,
			tx.Rebind(`SELECT `+rubricColumns+` FROM rubrics WHERE user_id = ? ORDER BY name, id`), userID); err != nil {
			return err
		}
		if !opts.WithRelated || len(rubrics) == 0 {
			return nil
		}
		var links []models.Link
		if err := tx.SelectContext(ctx, &links,
			tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE user_id = ? AND rubric_id IS NOT NULL ORDER BY url, id`), userID); err != nil {
			return err
		}
		byRubric := make(map[int64][]models.Link, len(rubrics))
		for _, l := range links {
			byRubric[*l.RubricID] = append(byRubric[*l.RubricID], l)
		}
		for i := range rubrics {
			rubrics[i].Links = byRubric[rubrics[i].ID]
			if rubrics[i].Links == nil {
				rubrics[i].Links = []models.Link{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_rubrics", err, slog.Int64("user_id", userID))
	}
	return rubrics, nil
}

// CountRubrics returns how many rubrics the user owns.
func (s *Store) CountRubrics(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM rubrics WHERE user_id = ?`), userID)
	})
	return n, s.fail(ctx, "count_rubrics", err, slog.Int64("user_id", userID))
}

// RubricHasLinks reports whether any of the user's links points at the rubric.
func (s *Store) RubricHasLinks(ctx context.Context, userID, rubricID int64) (bool, error) {
	var n int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n,
			tx.Rebind(`SELECT COUNT(*) FROM links WHERE user_id = ? AND rubric_id = ?`), userID, rubricID)
	})
	if err != nil {
		return false, s.fail(ctx, "rubric_has_links", err, slog.Int64("rubric_id", rubricID))
	}
	return n > 0, nil
}

// DeleteRubric applies the disposition to the rubric's links and deletes
// the rubric in the same transaction. A migration target must be another
// rubric of the same user.
func (s *Store) DeleteRubric(ctx context.Context, userID, rubricID int64, d Disposition) error {
	if err := d.validate(rubricID); err != nil {
		return err
	}
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var r models.Rubric
		if err := getRubric(ctx, tx, userID, rubricID, &r); err != nil {
			return err
		}
		var err error
		switch d.Kind {
		case DispositionSetNonRubric:
			_, err = tx.ExecContext(ctx,
				tx.Rebind(`UPDATE links SET rubric_id = NULL WHERE user_id = ? AND rubric_id = ?`), userID, rubricID)
		case DispositionDeleteLinks:
			_, err = tx.ExecContext(ctx,
				tx.Rebind(`DELETE FROM links WHERE user_id = ? AND rubric_id = ?`), userID, rubricID)
		case DispositionMigrate:
			_, err = moveLinks(ctx, tx, userID, rubricID, d.TargetID)
		}
		if err != nil {
			return err
		}
		return deleteRow(ctx, tx, "rubrics", rubricID, userID)
	})
	return s.fail(ctx, "delete_rubric", err,
		slog.Int64("rubric_id", rubricID),
		slog.String("disposition", d.String()),
	)
}

// MigrateLinks moves every link of rubric fromID into rubric toID and
// returns how many moved.
func (s *Store) MigrateLinks(ctx context.Context, userID, fromID, toID int64) (int64, error) {
	if fromID == toID {
		return 0, ErrInvalidArgumentCombination
	}
	var moved int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var from models.Rubric
		if err := getRubric(ctx, tx, userID, fromID, &from); err != nil {
			return err
		}
		var err error
		moved, err = moveLinks(ctx, tx, userID, fromID, toID)
		return err
	})
	if err != nil {
		return 0, s.fail(ctx, "migrate_links", err,
			slog.Int64("rubric_id", fromID),
			slog.Int64("target_rubric_id", toID),
		)
	}
	return moved, nil
}

func moveLinks(ctx context.Context, tx *sqlx.Tx, userID, fromID, toID int64) (int64, error) {
	var target models.Rubric
	if err := getRubric(ctx, tx, userID, toID, &target); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("migration target: %w", err)
		}
		return 0, err
	}
	return affected(tx.ExecContext(ctx,
		tx.Rebind(`UPDATE links SET rubric_id = ? WHERE user_id = ? AND rubric_id = ?`), toID, userID, fromID))
}
