package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/msomdec/taskdesk/internal/domain"
)

// RegisterInput is the payload accepted by AuthService.Register.
// Callers validate it before the call.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles user registration, login, and bearer token checks.
type AuthService struct {
	users  domain.UserRepository
	hasher *PasswordHasher
	tokens *TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users domain.UserRepository, hasher *PasswordHasher, tokens *TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates a user with the default role and returns a token for it.
// A taken email yields domain.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password both yield domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			s.hasher.Verify(password, s.dummy())
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", domain.ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user. Invalid tokens and
// tokens for deleted users yield domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("taskdesk-timing-equalizer")
	})
	return s.dummyHash
}
