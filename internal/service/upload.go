package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/msomdec/taskdesk/internal/domain"
)

// DefaultMaxUploadBytes is the size limit applied when none is configured.
const DefaultMaxUploadBytes = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadService stores profile pictures and serves stored files.
type UploadService struct {
	users    domain.UserRepository
	files    domain.FileStore
	maxBytes int64
}

// NewUploadService creates a new UploadService. A non-positive maxBytes
// selects DefaultMaxUploadBytes.
func NewUploadService(users domain.UserRepository, files domain.FileStore, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{users: users, files: files, maxBytes: maxBytes}
}

// MaxBytes returns the largest accepted upload.
func (s *UploadService) MaxBytes() int64 { return s.maxBytes }

// SetProfilePicture validates and stores an image, then points the user's
// profile picture at it. The previous picture is removed best-effort.
func (s *UploadService) SetProfilePicture(ctx context.Context, userID, contentType string, data []byte) (*domain.User, error) {
	if !allowedImageTypes[contentType] {
		return nil, domain.NewValidationError("file", "Only JPEG, PNG, GIF and WEBP images are accepted")
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "File is required")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.NewValidationError("file", fmt.Sprintf("File must be at most %d MB", s.maxBytes>>20))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	key := "profile-pictures/" + userID + "/" + uuid.NewString()
	if err := s.files.Save(ctx, key, contentType, data); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	url := s.files.URL(key)
	if err := s.users.Update(ctx, userID, domain.UserChanges{ProfilePicURL: &url}); err != nil {
		// Best-effort cleanup of the stored file.
		s.files.Delete(ctx, key)
		return nil, fmt.Errorf("update user: %w", err)
	}

	if oldKey, ok := strings.CutPrefix(user.ProfilePicURL, s.files.URL("")); ok && oldKey != "" {
		s.files.Delete(ctx, oldKey)
	}
	return s.users.GetByID(ctx, userID)
}

// GetFile returns stored bytes and their content type.
func (s *UploadService) GetFile(ctx context.Context, key string) ([]byte, string, error) {
	data, contentType, err := s.files.Get(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	return data, contentType, nil
}
