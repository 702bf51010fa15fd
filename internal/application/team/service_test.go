package team

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bryanwahyu/upstarter/internal/apperr"
	"github.com/bryanwahyu/upstarter/internal/application"
	domain "github.com/bryanwahyu/upstarter/internal/domain/team"
	"github.com/bryanwahyu/upstarter/internal/infra/db/sqlstore"
)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "team.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return &Service{Repo: sqlstore.NewTeamRepository(db), Logger: zaptest.NewLogger(t)}
}

func TestUpsertAndMe(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	me, err := svc.Me(ctx, "a@b.it")
	require.NoError(t, err)
	assert.Nil(t, me)

	p, err := svc.Upsert(ctx, "a@b.it", domain.Profile{
		UserEmail: "spoofed@b.it",
		Name:      " Anna ",
		Skills:    []string{"Go", "go", " ", "Marketing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.it", p.UserEmail)
	assert.Equal(t, "Anna", p.Name)
	assert.Equal(t, []string{"Go", "Marketing"}, p.Skills)

	again, err := svc.Upsert(ctx, "a@b.it", domain.Profile{Name: "Anna Rossi"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	me, err = svc.Me(ctx, "a@b.it")
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, "Anna Rossi", me.Name)
}

func TestUpsert_ServerOwnsTimestamps(t *testing.T) {
	svc := newService(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.Clock = application.FixedClock{T: created}
	ctx := context.Background()
	spoofed := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := svc.Upsert(ctx, "a@b.it", domain.Profile{Name: "Anna", CreatedAt: spoofed, UpdatedAt: spoofed})
	require.NoError(t, err)
	assert.True(t, created.Equal(p.CreatedAt))

	svc.Clock = application.FixedClock{T: created.Add(48 * time.Hour)}
	_, err = svc.Upsert(ctx, "a@b.it", domain.Profile{Name: "Anna", CreatedAt: spoofed})
	require.NoError(t, err)

	me, err := svc.Me(ctx, "a@b.it")
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.True(t, created.Equal(me.CreatedAt), "creation time kept: %s", me.CreatedAt)
	assert.True(t, created.Add(48*time.Hour).Equal(me.UpdatedAt))
}

func TestUpsertValidation(t *testing.T) {
	svc := newService(t)
	for name, p := range map[string]domain.Profile{
		"no name":      {Name: ""},
		"bad linkedin": {Name: "A", LinkedInURL: "javascript:alert(1)"},
		"negative exp": {Name: "A", ExperienceYears: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), "a@b.it", p)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestBrowseAndMatches(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Matches(ctx, "me@b.it", 0)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	profiles := map[string]domain.Profile{
		"me@b.it":    {Name: "Me", Skills: []string{"Go"}, IndustryFocus: []string{"fintech"}, Role: "CTO", Location: "Milano"},
		"biz@b.it":   {Name: "Bea", Skills: []string{"Sales", "Marketing"}, IndustryFocus: []string{"fintech"}, Role: "CEO", Location: "Milano"},
		"clone@b.it": {Name: "Carlo", Skills: []string{"Go"}, Role: "CTO", Location: "Roma"},
	}
	for email, p := range profiles {
		_, err := svc.Upsert(ctx, email, p)
		require.NoError(t, err)
	}

	all, err := svc.Browse(ctx, BrowseQuery{UserEmail: "me@b.it"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	others, err := svc.Browse(ctx, BrowseQuery{UserEmail: "me@b.it", ExcludeSelf: true})
	require.NoError(t, err)
	assert.Len(t, others, 2)

	sales, err := svc.Browse(ctx, BrowseQuery{UserEmail: "me@b.it", Skills: []string{"sales"}})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Bea", sales[0].Name)

	matches, err := svc.Matches(ctx, "me@b.it", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Bea", matches[0].Profile.Name)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}
