package store

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/notebot/internal/models"
)

const linkColumns = `id, url, description, created_at, user_id, rubric_id`

type linkScope int

const (
	scopeAll linkScope = iota
	scopeNonRubric
	scopeRubric
)

// LinkFilter narrows FetchLinks to a rubric scope.
type LinkFilter struct {
	scope    linkScope
	rubricID int64
}

// AllLinks matches every link of the user.
func AllLinks() LinkFilter { return LinkFilter{scope: scopeAll} }

// NonRubricLinks matches links without a rubric.
func NonRubricLinks() LinkFilter { return LinkFilter{scope: scopeNonRubric} }

// LinksInRubric matches links of one rubric.
func LinksInRubric(rubricID int64) LinkFilter {
	return LinkFilter{scope: scopeRubric, rubricID: rubricID}
}

func (f LinkFilter) where() (string, []any) {
	switch f.scope {
	case scopeNonRubric:
		return ` AND rubric_id IS NULL`, nil
	case scopeRubric:
		return ` AND rubric_id = ?`, []any{f.rubricID}
	default:
		return "", nil
	}
}

// AddLink stores l for l.UserID. A non-nil RubricID must name one of the
// user's rubrics. l.ID and l.CreatedAt are filled on success.
func (s *Store) AddLink(ctx context.Context, l *models.Link) error {
	createdAt := s.now()
	var id int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		if l.RubricID != nil {
			var r models.Rubric
			if err := getRubric(ctx, tx, l.UserID, *l.RubricID, &r); err != nil {
				return err
			}
		}
		return tx.QueryRowxContext(ctx,
			s.q(`INSERT INTO links (url, description, created_at, user_id, rubric_id) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			l.URL, l.Description, createdAt, l.UserID, l.RubricID,
		).Scan(&id)
	})
	if err != nil {
		return s.fail(ctx, "add_link", err, slog.Int64("user_id", l.UserID))
	}
	l.ID = id
	l.CreatedAt = createdAt
	return nil
}

// FetchLink returns the user's link with id.
func (s *Store) FetchLink(ctx context.Context, userID, id int64, opts FetchOptions) (*models.Link, error) {
	var l models.Link
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &l,
			tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ? AND user_id = ?`), id, userID)
		if err != nil {
			return notFoundOnNoRows(err)
		}
		if !opts.WithRelated || l.RubricID == nil {
			return nil
		}
		var r models.Rubric
		if err := getRubric(ctx, tx, userID, *l.RubricID, &r); err != nil {
			return err
		}
		l.Rubric = &r
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_link", err, slog.Int64("link_id", id))
	}
	return &l, nil
}

// FetchLinks returns the user's links in the filter's scope ordered by url.
func (s *Store) FetchLinks(ctx context.Context, userID int64, filter LinkFilter, opts FetchOptions) ([]models.Link, error) {
	links := []models.Link{}
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		cond, args := filter.where()
		args = append([]any{userID}, args...)
		if err := tx.SelectContext(ctx, &links,
			tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE user_id = ?`+cond+` ORDER BY url, id`), args...); err != nil {
			return err
		}
		if !opts.WithRelated {
			return nil
		}
		return attachRubrics(ctx, tx, userID, links)
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_links", err, slog.Int64("user_id", userID))
	}
	return links, nil
}

func attachRubrics(ctx context.Context, tx *sqlx.Tx, userID int64, links []models.Link) error {
	var rubrics []models.Rubric
	if err := tx.SelectContext(ctx, &rubrics,
		tx.Rebind(`SELECT `+rubricColumns+` FROM rubrics WHERE user_id = ?`), userID); err != nil {
		return err
	}
	byID := make(map[int64]*models.Rubric, len(rubrics))
	for i := range rubrics {
		byID[rubrics[i].ID] = &rubrics[i]
	}
	for i := range links {
		if links[i].RubricID != nil {
			links[i].Rubric = byID[*links[i].RubricID]
		}
	}
	return nil
}

// FetchLinksGrouped returns the user's non-empty rubrics with their links,
// ordered by rubric name, followed by the non-rubric links when there are any.
func (s *Store) FetchLinksGrouped(ctx context.Context, userID int64) ([]models.RubricLinks, error) {
	var groups []models.RubricLinks
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		var rubrics []models.Rubric
		if err := tx.SelectContext(ctx, &rubrics,
			tx.Rebind(`SELECT `+rubricColumns+` FROM rubrics WHERE user_id = ? ORDER BY name, id`), userID); err != nil {
			return err
		}
		var links []models.Link
		if err := tx.SelectContext(ctx, &links,
			tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE user_id = ? ORDER BY url, id`), userID); err != nil {
			return err
		}
		byRubric := make(map[int64][]models.Link, len(rubrics))
		var loose []models.Link
		for _, l := range links {
			if l.RubricID == nil {
				loose = append(loose, l)
				continue
			}
			byRubric[*l.RubricID] = append(byRubric[*l.RubricID], l)
		}
		for i := range rubrics {
			if grouped := byRubric[rubrics[i].ID]; len(grouped) > 0 {
				groups = append(groups, models.RubricLinks{Rubric: &rubrics[i], Links: grouped})
			}
		}
		if len(loose) > 0 {
			groups = append(groups, models.RubricLinks{Links: loose})
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "fetch_links_grouped", err, slog.Int64("user_id", userID))
	}
	return groups, nil
}

// CountLinks returns how many links the user owns.
func (s *Store) CountLinks(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM links WHERE user_id = ?`), userID)
	})
	return n, s.fail(ctx, "count_links", err, slog.Int64("user_id", userID))
}

// DeleteLink removes the user's link with id.
func (s *Store) DeleteLink(ctx context.Context, userID, id int64) error {
	err := s.tx(ctx, func(tx *sqlx.Tx) error {
		return deleteRow(ctx, tx, "links", id, userID)
	})
	return s.fail(ctx, "delete_link", err, slog.Int64("link_id", id))
}
