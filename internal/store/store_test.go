package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/notebot/internal/models"
	"github.com/m3rciful/notebot/internal/store"
	"github.com/m3rciful/notebot/internal/store/storetest"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, s *store.Store, id int64) {
	t.Helper()
	_, err := s.AddUser(context.Background(), id)
	require.NoError(t, err)
}

func addRubric(t *testing.T, s *store.Store, userID int64, name string) *models.Rubric {
	t.Helper()
	r := &models.Rubric{Name: name, UserID: userID}
	require.NoError(t, s.AddRubric(context.Background(), r))
	return r
}

func addLink(t *testing.T, s *store.Store, userID int64, url string, rubricID *int64) *models.Link {
	t.Helper()
	l := &models.Link{URL: url, UserID: userID, RubricID: rubricID}
	require.NoError(t, s.AddLink(context.Background(), l))
	return l
}

func TestUsers(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()

	u, err := s.AddUser(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.False(t, u.CreatedAt.IsZero())

	_, err = s.AddUser(ctx, 42)
	require.ErrorIs(t, err, store.ErrUserAlreadyExists)
	require.True(t, store.IsDuplicate(err))

	created, err := s.EnsureUser(ctx, 42)
	require.NoError(t, err)
	require.False(t, created)
	created, err = s.EnsureUser(ctx, 7)
	require.NoError(t, err)
	require.True(t, created)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestDeleteUserRemovesOwnedRecords(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	r := addRubric(t, s, 1, "go")
	addLink(t, s, 1, "https://go.dev", &r.ID)
	require.NoError(t, s.AddBug(ctx, &models.Bug{Message: "something broke", UserID: 1}))

	require.NoError(t, s.DeleteUser(ctx, 1))
	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.ErrorIs(t, s.DeleteUser(ctx, 1), store.ErrNotFound)
}

func TestAddRubricRejectsDuplicateNamePerUser(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	seedUser(t, s, 2)

	r := addRubric(t, s, 1, "news")
	require.NotZero(t, r.ID)

	err := s.AddRubric(ctx, &models.Rubric{Name: "news", UserID: 1})
	require.ErrorIs(t, err, store.ErrRubricNameTaken)

	// other users may reuse the name
	addRubric(t, s, 2, "news")

	ok, err := s.RubricNameAvailable(ctx, 1, "news")
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = s.RubricNameAvailable(ctx, 1, "music")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFetchRubricsScopedAndOrdered(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	seedUser(t, s, 2)
	zeta := addRubric(t, s, 1, "zeta")
	alpha := &models.Rubric{Name: "alpha", Description: strPtr("first"), UserID: 1}
	require.NoError(t, s.AddRubric(ctx, alpha))
	foreign := addRubric(t, s, 2, "foreign")
	addLink(t, s, 1, "https://b.example", &zeta.ID)
	addLink(t, s, 1, "https://a.example", &zeta.ID)

	rubrics, err := s.FetchRubrics(ctx, 1, store.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, rubrics, 2)
	require.Equal(t, "alpha", rubrics[0].Name)
	require.Equal(t, "first", *rubrics[0].Description)
	require.Nil(t, rubrics[0].Links)

	rubrics, err = s.FetchRubrics(ctx, 1, store.FetchOptions{WithRelated: true})
	require.NoError(t, err)
	require.Empty(t, rubrics[0].Links)
	require.Len(t, rubrics[1].Links, 2)
	require.Equal(t, "https://a.example", rubrics[1].Links[0].URL)

	got, err := s.FetchRubric(ctx, 1, zeta.ID, store.FetchOptions{WithRelated: true})
	require.NoError(t, err)
	require.Equal(t, "zeta", got.Name)
	require.Len(t, got.Links, 2)

	_, err = s.FetchRubric(ctx, 1, foreign.ID, store.FetchOptions{})
	require.ErrorIs(t, err, store.ErrNotFound)

	for _, opts := range []store.FetchOptions{{}, {WithRelated: true}} {
		first, err := s.FetchRubric(ctx, 1, zeta.ID, opts)
		require.NoError(t, err)
		second, err := s.FetchRubric(ctx, 1, zeta.ID, opts)
		require.NoError(t, err)
		require.Equal(t, first, second)
	}

	n, err := s.CountRubrics(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	has, err := s.RubricHasLinks(ctx, 1, zeta.ID)
	require.NoError(t, err)
	require.True(t, has)
	has, err = s.RubricHasLinks(ctx, 1, alpha.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestLinks(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	seedUser(t, s, 2)
	r := addRubric(t, s, 1, "docs")
	foreign := addRubric(t, s, 2, "mine")

	err := s.AddLink(ctx, &models.Link{URL: "https://x.example", UserID: 1, RubricID: &foreign.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	in := addLink(t, s, 1, "https://pkg.go.dev", &r.ID)
	loose := &models.Link{URL: "https://example.com", Description: strPtr("misc"), UserID: 1}
	require.NoError(t, s.AddLink(ctx, loose))

	got, err := s.FetchLink(ctx, 1, in.ID, store.FetchOptions{WithRelated: true})
	require.NoError(t, err)
	require.NotNil(t, got.Rubric)
	require.Equal(t, "docs", got.Rubric.Name)

	got, err = s.FetchLink(ctx, 1, loose.ID, store.FetchOptions{WithRelated: true})
	require.NoError(t, err)
	require.Nil(t, got.Rubric)
	require.Equal(t, "misc", *got.Description)

	_, err = s.FetchLink(ctx, 2, in.ID, store.FetchOptions{})
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.FetchLinks(ctx, 1, store.AllLinks(), store.FetchOptions{WithRelated: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "https://example.com", all[0].URL)
	require.Equal(t, "docs", all[1].Rubric.Name)

	nonRubric, err := s.FetchLinks(ctx, 1, store.NonRubricLinks(), store.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, nonRubric, 1)
	require.Equal(t, loose.ID, nonRubric[0].ID)

	inRubric, err := s.FetchLinks(ctx, 1, store.LinksInRubric(r.ID), store.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, inRubric, 1)
	require.Equal(t, in.ID, inRubric[0].ID)

	n, err := s.CountLinks(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	require.ErrorIs(t, s.DeleteLink(ctx, 2, in.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteLink(ctx, 1, in.ID))
	require.ErrorIs(t, s.DeleteLink(ctx, 1, in.ID), store.ErrNotFound)
}

func TestFetchLinksGrouped(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	b := addRubric(t, s, 1, "b")
	a := addRubric(t, s, 1, "a")
	addRubric(t, s, 1, "empty")
	addLink(t, s, 1, "https://b.example", &b.ID)
	addLink(t, s, 1, "https://a.example", &a.ID)
	addLink(t, s, 1, "https://loose.example", nil)

	groups, err := s.FetchLinksGrouped(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, "a", groups[0].Rubric.Name)
	require.Equal(t, "b", groups[1].Rubric.Name)
	require.Nil(t, groups[2].Rubric)
	require.Equal(t, "https://loose.example", groups[2].Links[0].URL)

	groups, err = s.FetchLinksGrouped(ctx, 99)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestDeleteRubricDispositions(t *testing.T) {
	ctx := context.Background()

	t.Run("set non-rubric", func(t *testing.T) {
		s := storetest.New(t)
		seedUser(t, s, 1)
		r := addRubric(t, s, 1, "r")
		l := addLink(t, s, 1, "https://a.example", &r.ID)

		require.NoError(t, s.DeleteRubric(ctx, 1, r.ID, store.SetNonRubric()))
		got, err := s.FetchLink(ctx, 1, l.ID, store.FetchOptions{})
		require.NoError(t, err)
		require.Nil(t, got.RubricID)
		_, err = s.FetchRubric(ctx, 1, r.ID, store.FetchOptions{})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete links", func(t *testing.T) {
		s := storetest.New(t)
		seedUser(t, s, 1)
		r := addRubric(t, s, 1, "r")
		addLink(t, s, 1, "https://a.example", &r.ID)
		keep := addLink(t, s, 1, "https://keep.example", nil)

		require.NoError(t, s.DeleteRubric(ctx, 1, r.ID, store.DeleteLinks()))
		links, err := s.FetchLinks(ctx, 1, store.AllLinks(), store.FetchOptions{})
		require.NoError(t, err)
		require.Len(t, links, 1)
		require.Equal(t, keep.ID, links[0].ID)
	})

	t.Run("migrate", func(t *testing.T) {
		s := storetest.New(t)
		seedUser(t, s, 1)
		from := addRubric(t, s, 1, "from")
		to := addRubric(t, s, 1, "to")
		l := addLink(t, s, 1, "https://a.example", &from.ID)

		require.NoError(t, s.DeleteRubric(ctx, 1, from.ID, store.MigrateTo(to.ID)))
		got, err := s.FetchLink(ctx, 1, l.ID, store.FetchOptions{})
		require.NoError(t, err)
		require.Equal(t, to.ID, *got.RubricID)
	})

	t.Run("migrate target must be owned", func(t *testing.T) {
		s := storetest.New(t)
		seedUser(t, s, 1)
		seedUser(t, s, 2)
		from := addRubric(t, s, 1, "from")
		other := addRubric(t, s, 2, "other")
		l := addLink(t, s, 1, "https://a.example", &from.ID)

		err := s.DeleteRubric(ctx, 1, from.ID, store.MigrateTo(other.ID))
		require.ErrorIs(t, err, store.ErrNotFound)

		// rolled back
		got, err := s.FetchLink(ctx, 1, l.ID, store.FetchOptions{})
		require.NoError(t, err)
		require.Equal(t, from.ID, *got.RubricID)
	})

	t.Run("invalid", func(t *testing.T) {
		s := storetest.New(t)
		seedUser(t, s, 1)
		r := addRubric(t, s, 1, "r")
		require.ErrorIs(t, s.DeleteRubric(ctx, 1, r.ID, store.MigrateTo(r.ID)), store.ErrInvalidArgumentCombination)
		require.ErrorIs(t, s.DeleteRubric(ctx, 1, r.ID+100, store.SetNonRubric()), store.ErrNotFound)
	})
}

func TestDispositionFromFlags(t *testing.T) {
	target := int64(5)

	d, err := store.DispositionFromFlags(false, nil)
	require.NoError(t, err)
	require.Equal(t, store.SetNonRubric(), d)

	d, err = store.DispositionFromFlags(true, nil)
	require.NoError(t, err)
	require.Equal(t, store.DispositionDeleteLinks, d.Kind)

	d, err = store.DispositionFromFlags(false, &target)
	require.NoError(t, err)
	require.Equal(t, store.MigrateTo(5), d)
	require.Equal(t, "migrate_to:5", d.String())

	_, err = store.DispositionFromFlags(true, &target)
	require.ErrorIs(t, err, store.ErrInvalidArgumentCombination)
}

func TestMigrateLinks(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	from := addRubric(t, s, 1, "from")
	to := addRubric(t, s, 1, "to")
	addLink(t, s, 1, "https://a.example", &from.ID)
	addLink(t, s, 1, "https://b.example", &from.ID)

	moved, err := s.MigrateLinks(ctx, 1, from.ID, to.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), moved)

	has, err := s.RubricHasLinks(ctx, 1, from.ID)
	require.NoError(t, err)
	require.False(t, has)

	_, err = s.MigrateLinks(ctx, 1, to.ID, to.ID)
	require.ErrorIs(t, err, store.ErrInvalidArgumentCombination)
}

func TestBulkDeletes(t *testing.T) {
	ctx := context.Background()
	seed := func(t *testing.T) *store.Store {
		s := storetest.New(t)
		seedUser(t, s, 1)
		seedUser(t, s, 2)
		r := addRubric(t, s, 1, "r")
		addLink(t, s, 1, "https://in.example", &r.ID)
		addLink(t, s, 1, "https://out.example", nil)
		other := addRubric(t, s, 2, "r")
		addLink(t, s, 2, "https://other.example", &other.ID)
		return s
	}
	counts := func(t *testing.T, s *store.Store, userID int64) (int64, int64) {
		links, err := s.CountLinks(ctx, userID)
		require.NoError(t, err)
		rubrics, err := s.CountRubrics(ctx, userID)
		require.NoError(t, err)
		return links, rubrics
	}

	cases := []struct {
		name        string
		run         func(*store.Store) (store.BulkResult, error)
		want        store.BulkResult
		wantLinks   int64
		wantRubrics int64
	}{
		{"all links", func(s *store.Store) (store.BulkResult, error) { return s.DeleteAllLinks(ctx, 1) }, store.BulkResult{Links: 2}, 0, 1},
		{"all rubrics", func(s *store.Store) (store.BulkResult, error) { return s.DeleteAllRubrics(ctx, 1) }, store.BulkResult{Rubrics: 1}, 2, 0},
		{"rubric links", func(s *store.Store) (store.BulkResult, error) { return s.DeleteAllRubricLinks(ctx, 1) }, store.BulkResult{Links: 1}, 1, 1},
		{"non-rubric links", func(s *store.Store) (store.BulkResult, error) { return s.DeleteAllNonRubricLinks(ctx, 1) }, store.BulkResult{Links: 1}, 1, 1},
		{"all data", func(s *store.Store) (store.BulkResult, error) { return s.DeleteAllData(ctx, 1) }, store.BulkResult{Links: 2, Rubrics: 1}, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := seed(t)
			res, err := tc.run(s)
			require.NoError(t, err)
			require.Equal(t, tc.want, res)

			links, rubrics := counts(t, s, 1)
			require.Equal(t, tc.wantLinks, links)
			require.Equal(t, tc.wantRubrics, rubrics)

			links, rubrics = counts(t, s, 2)
			require.Equal(t, int64(1), links)
			require.Equal(t, int64(1), rubrics)

			users, err := s.CountUsers(ctx)
			require.NoError(t, err)
			require.Equal(t, int64(2), users)
			_, err = s.AddUser(ctx, 1)
			require.ErrorIs(t, err, store.ErrUserAlreadyExists)
		})
	}
}

func TestBugs(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)

	first := &models.Bug{Message: "button does nothing", UserID: 1}
	require.NoError(t, s.AddBug(ctx, first))
	require.NotZero(t, first.ID)
	require.NoError(t, s.AddBug(ctx, &models.Bug{Message: "typo in the greeting", UserID: 1}))

	unseen, err := s.FetchBugs(ctx, true)
	require.NoError(t, err)
	require.Len(t, unseen, 2)
	require.Equal(t, first.ID, unseen[0].ID)

	n, err := s.MarkAllBugsSeen(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	unseen, err = s.FetchBugs(ctx, true)
	require.NoError(t, err)
	require.Empty(t, unseen)

	all, err := s.FetchBugs(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Shown)
}

func TestDeleteEntity(t *testing.T) {
	s := storetest.New(t)
	ctx := context.Background()
	seedUser(t, s, 1)
	l := addLink(t, s, 1, "https://a.example", nil)

	require.NoError(t, s.DeleteEntity(ctx, *l))
	require.ErrorIs(t, s.DeleteEntity(ctx, *l), store.ErrNotFound)
}
