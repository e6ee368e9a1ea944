package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/service"
)

// UploadHandler accepts profile picture uploads and serves stored files.
type UploadHandler struct {
	uploads *service.UploadService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploads *service.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// HandleProfilePicture stores the multipart "file" field as the caller's
// profile picture. The content type is sniffed from the bytes.
// POST /upload/profile-picture
// Response: 201 {"success":true,"fileUrl":"..."}
func (h *UploadHandler) HandleProfilePicture(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.ErrUnauthorized)
		return
	}

	maxBytes := h.uploads.MaxBytes()
	tooLarge := domain.NewValidationError("file", fmt.Sprintf("File must be at most %d MB", maxBytes>>20))

	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, tooLarge)
			return
		}
		respondError(w, r, domain.NewValidationError("file", "No file uploaded"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, domain.NewValidationError("file", "No file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	if int64(len(data)) > maxBytes {
		respondError(w, r, tooLarge)
		return
	}

	updated, err := h.uploads.SetProfilePicture(r.Context(), user.ID, http.DetectContentType(data), data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"fileUrl": updated.ProfilePicURL,
	})
}

// HandleFile streams a stored file.
// GET /files/{key...}
func (h *UploadHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.uploads.GetFile(r.Context(), r.PathValue("key"))
	if err != nil {
		if isNotFound(err) {
			err = withMessage(err, "Not Found - "+r.URL.Path)
		}
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
