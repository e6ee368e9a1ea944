package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/repository/sqlite"
	"github.com/msomdec/taskdesk/internal/service"
)

func newTestUserService(t *testing.T) (*service.UserService, *service.PasswordHasher, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	hasher := newTestHasher()
	return service.NewUserService(db.Users(), hasher), hasher, db
}

func createUser(t *testing.T, users *service.UserService, email string) *domain.User {
	t.Helper()
	user, err := users.Create(context.Background(), service.CreateUserInput{
		Name:     "Someone",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return user
}

func ptr[T any](v T) *T { return &v }

func TestUserService_Create_DefaultsRole(t *testing.T) {
	users, hasher, _ := newTestUserService(t)

	user := createUser(t, users, "Create@Example.com")

	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, "create@example.com", user.Email)
	assert.True(t, hasher.Verify("password123", user.PasswordHash))
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	users, _, _ := newTestUserService(t)

	_, err := users.Create(context.Background(), service.CreateUserInput{
		Name: "X", Email: "x@example.com", Password: "password123", Role: "root",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserService_Update_KeepsHashWhenPasswordUnchanged(t *testing.T) {
	users, _, db := newTestUserService(t)
	ctx := context.Background()
	user := createUser(t, users, "keep@example.com")

	_, err := users.Update(ctx, user.ID, service.UserPatch{Name: ptr("New Name")})
	require.NoError(t, err)
	_, err = users.Update(ctx, user.ID, service.UserPatch{Role: ptr(domain.RoleAdmin)})
	require.NoError(t, err)

	stored, err := db.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
}

func TestUserService_Update_RehashesNewPassword(t *testing.T) {
	users, hasher, db := newTestUserService(t)
	ctx := context.Background()
	user := createUser(t, users, "rehash@example.com")

	_, err := users.Update(ctx, user.ID, service.UserPatch{Password: ptr("brand-new-pass")})
	require.NoError(t, err)

	stored, err := db.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, stored.PasswordHash)
	assert.NotEqual(t, "brand-new-pass", stored.PasswordHash)
	assert.True(t, hasher.Verify("brand-new-pass", stored.PasswordHash))
}

func TestUserService_Update_DuplicateEmail(t *testing.T) {
	users, _, _ := newTestUserService(t)
	createUser(t, users, "first@example.com")
	second := createUser(t, users, "second@example.com")

	_, err := users.Update(context.Background(), second.ID, service.UserPatch{Email: ptr("FIRST@example.com")})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserService_Update_NotFound(t *testing.T) {
	users, _, _ := newTestUserService(t)

	_, err := users.Update(context.Background(), "missing", service.UserPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	users, hasher, db := newTestUserService(t)
	ctx := context.Background()
	user := createUser(t, users, "change@example.com")

	err := users.ChangePassword(ctx, user.ID, "wrong-current", "next-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, users.ChangePassword(ctx, user.ID, "password123", "next-password"))

	stored, err := db.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, hasher.Verify("next-password", stored.PasswordHash))
}

func TestUserService_ListAndDelete(t *testing.T) {
	users, _, _ := newTestUserService(t)
	ctx := context.Background()
	a := createUser(t, users, "a@example.com")
	createUser(t, users, "b@example.com")

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, users.Delete(ctx, a.ID))
	_, err = users.Get(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, a.ID), domain.ErrNotFound)
}

func TestUserService_SeedAdmin(t *testing.T) {
	users, _, db := newTestUserService(t)
	ctx := context.Background()

	created, err := users.SeedAdmin(ctx, "Admin", "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.SeedAdmin(ctx, "Admin", "ADMIN@example.com", "other-password")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := db.Users().GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestUserService_ChangePassword_KeepsConcurrentRoleChange(t *testing.T) {
	db := newTestDB(t)
	hasher := newTestHasher()
	admins := service.NewUserService(db.Users(), hasher)
	user := createUser(t, admins, "both@example.com")
	ctx := context.Background()

	repo := &interleavingRepo{UserRepository: db.Users()}
	repo.hook = func() {
		_, err := admins.Update(ctx, user.ID, service.UserPatch{Role: ptr(domain.RoleAdmin), Name: ptr("Promoted")})
		require.NoError(t, err)
	}
	self := service.NewUserService(repo, hasher)
	require.NoError(t, self.ChangePassword(ctx, user.ID, "password123", "changed-password"))

	stored, err := db.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
	assert.Equal(t, "Promoted", stored.Name)
	assert.True(t, hasher.Verify("changed-password", stored.PasswordHash))
}
