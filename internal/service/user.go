package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/taskdesk/internal/domain"
)

// CreateUserInput is the payload for an administrator-created account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UserPatch carries a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService manages user records on behalf of administrators and of users
// editing their own profile.
type UserService struct {
	users  domain.UserRepository
	hasher *PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, hasher *PasswordHasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// List returns every user ordered by creation time.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create stores a new user. An empty role means domain.RoleUser.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "Role must be one of: user, admin")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update applies patch to the user with the given ID and returns the stored
// record. Only the patched columns are written, so fields changed
// concurrently by other requests are kept. The password is re-hashed only
// when the patch carries a new one.
func (s *UserService) Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	var changes domain.UserChanges
	changes.Name = patch.Name
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		changes.Email = &email
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, domain.NewValidationError("role", "Role must be one of: user, admin")
		}
		changes.Role = patch.Role
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	if err := s.users.Update(ctx, id, changes); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.users.GetByID(ctx, id)
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// ChangePassword replaces the password of the user after checking the
// current one. A wrong current password yields domain.ErrUnauthorized.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return domain.ErrUnauthorized
	}
	_, err = s.Update(ctx, id, UserPatch{Password: &next})
	return err
}

// SeedAdmin makes sure an administrator with email exists. An existing
// account is left as is. It reports whether a new account was created.
func (s *UserService) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	_, err = s.Create(ctx, CreateUserInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
