package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/repository/sqlite"
)

func newUser(email string) *domain.User {
	return &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hashedpw",
	}
}

func TestUserRepository_Create(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("test@example.com")
	require.NoError(t, repo.Create(ctx, user))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("dup@example.com")))

	err := repo.Create(ctx, newUser("dup@example.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserRepository_Create_ConcurrentDuplicates(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.Create(ctx, newUser("race@example.com"))
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateEmail):
			dup++
		default:
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
}

func TestUserRepository_GetByID(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("get@example.com")
	user.Role = domain.RoleAdmin
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "get@example.com", got.Email)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, "hashedpw", got.PasswordHash)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("email@example.com")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "email@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_List(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("a@example.com")))
	require.NoError(t, repo.Create(ctx, newUser("b@example.com")))

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Update(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("before@example.com")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Update(ctx, user.ID, domain.UserChanges{
		Name:          strPtr("Renamed"),
		Email:         strPtr("after@example.com"),
		ProfilePicURL: strPtr("/files/pic"),
	}))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "after@example.com", got.Email)
	assert.Equal(t, "/files/pic", got.ProfilePicURL)
	assert.Equal(t, "hashedpw", got.PasswordHash)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestUserRepository_Update_LeavesOtherColumns(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("cols@example.com")
	require.NoError(t, repo.Create(ctx, user))

	// stale is read before the password changes.
	stale, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, user.ID, domain.UserChanges{PasswordHash: strPtr("newhash")}))
	require.NoError(t, repo.Update(ctx, stale.ID, domain.UserChanges{ProfilePicURL: strPtr("/files/new")}))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Equal(t, "/files/new", got.ProfilePicURL)
	assert.Equal(t, "Test User", got.Name)
}

func TestUserRepository_Update_NoChanges(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("same@example.com")
	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.Update(ctx, user.ID, domain.UserChanges{}))
}

func TestUserRepository_Update_DuplicateEmail(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("taken@example.com")))
	user := newUser("mine@example.com")
	require.NoError(t, repo.Create(ctx, user))

	err := repo.Update(ctx, user.ID, domain.UserChanges{Email: strPtr("taken@example.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))

	err := repo.Update(context.Background(), "missing", domain.UserChanges{Name: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := sqlite.NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := newUser("del@example.com")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrNotFound)
}
