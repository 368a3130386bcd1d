//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("directory"),
		tcpostgres.WithUsername("directory"),
		tcpostgres.WithPassword("directory"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db))
	return db
}

func createProfile(t *testing.T, repo *ProfileRepository, email, slug string, mutate func(*domain.Profile)) *domain.Profile {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.NewProfile("")
	p.FirstName = "Jane"
	p.LastName = "Doe"
	if mutate != nil {
		mutate(p)
	}
	created, err := repo.Create(context.Background(), &domain.Identity{
		Username:    email,
		Email:       email,
		DisplayName: p.FullName(),
		Slug:        slug,
		Role:        domain.RoleMember,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, p)
	require.NoError(t, err)
	return created
}

func TestProfileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	created := createProfile(t, repo, "jane@example.com", "jane-doe", func(p *domain.Profile) {
		p.Specialties = []string{"FHA", "VA"}
		p.CustomLinks = []domain.CustomLink{{Title: "Apply", URL: "https://example.com/apply"}}
		p.Region = "west"
	})

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane", got.FirstName)
	require.Equal(t, []string{"FHA", "VA"}, got.Specialties)
	require.Equal(t, []domain.CustomLink{{Title: "Apply", URL: "https://example.com/apply"}}, got.CustomLinks)
	require.Equal(t, []string{}, got.Languages)

	bySlug, err := repo.FindBySlug(ctx, "jane-doe")
	require.NoError(t, err)
	require.Equal(t, created.ID, bySlug.ID)

	byEmail, err := repo.FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileRepository_SaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	createProfile(t, repo, "taken@example.com", "taken", nil)
	p := createProfile(t, repo, "jane@example.com", "jane-doe", nil)

	p.Email = "taken@example.com"
	p.JobTitle = "Branch Manager"
	p.UpdatedAt = time.Now().UTC()
	err := repo.Save(ctx, p)
	require.True(t, errors.Is(err, domain.ErrEmailTaken), "got %v", err)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", stored.Email)
	require.Empty(t, stored.JobTitle, "attribute write must roll back with the identity")
}

func TestProfileRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewProfileRepository(db)

	p := createProfile(t, repo, "jane@example.com", "jane-doe", nil)
	require.NoError(t, repo.Delete(ctx, p.ID))

	var rows int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identity_meta`).Scan(&rows))
	require.Zero(t, rows)
	require.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrProfileNotFound)
}

func TestProfileRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	createProfile(t, repo, "a@example.com", "a", func(p *domain.Profile) { p.PersonType = "agent" })
	createProfile(t, repo, "b@example.com", "b", func(p *domain.Profile) {
		p.PersonType = "agent"
		p.Status = domain.ProfileStatusInactive
	})
	createProfile(t, repo, "c@example.com", "c", func(p *domain.Profile) { p.PersonType = "loan_officer" })

	items, total, err := repo.List(ctx, ports.ListProfilesFilter{
		PersonType: "agent",
		Status:     domain.ProfileStatusActive,
		Page:       1,
		Limit:      20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, "a@example.com", items[0].Email)

	_, total, err = repo.List(ctx, ports.ListProfilesFilter{Search: "C@EXAMPLE", Page: 1, Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
}

func TestActivityRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityRepository(newTestDB(t))

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 25; i++ {
		_, err := repo.Insert(ctx, &domain.ActivityEntry{
			OwnerID:    "42",
			Action:     domain.ActionTaskCreated,
			EntityType: "task",
			Summary:    "task",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, total, err := repo.ListByOwner(ctx, "42", 20, 20)
	require.NoError(t, err)
	require.EqualValues(t, 25, total)
	require.Len(t, entries, 5)
	require.True(t, entries[0].CreatedAt.After(entries[4].CreatedAt))
}

func TestProfileRepository_SlugExistsCoversCustomSlugs(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	a := createProfile(t, repo, "a@example.com", "ann-lee", func(p *domain.Profile) { p.CustomSlug = "mortgage-guy" })
	b := createProfile(t, repo, "b@example.com", "bob-ray", nil)

	taken, err := repo.SlugExists(ctx, "mortgage-guy", b.ID)
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = repo.SlugExists(ctx, "mortgage-guy", a.ID)
	require.NoError(t, err)
	require.False(t, taken)

	taken, err = repo.SlugExists(ctx, "mortgage-guy", "")
	require.NoError(t, err)
	require.True(t, taken)
}
