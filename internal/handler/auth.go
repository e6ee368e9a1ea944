package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// HandleRegister creates an account and returns a token for it.
// POST /auth/register
// Request:  {"name":"...","email":"...","password":"..."}
// Response: 201 {"token":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	token, _, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// HandleLogin exchanges credentials for a token.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: 200 {"token":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			err = withMessage(err, "Invalid email or password")
		}
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// HandleProfile returns the currently authenticated user.
// GET /auth/profile, GET /auth/me
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleUpdateProfile lets users edit their own name, email and password.
// PUT /auth/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.ErrUnauthorized)
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	updated, err := h.users.Update(r.Context(), user.ID, service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(updated))
}

// HandleChangePassword replaces the caller's password.
// PUT /auth/password
// Request:  {"currentPassword":"...","newPassword":"..."}
// Response: 204 No Content
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.ErrUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	err := h.users.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			err = withMessage(err, "Current password is incorrect")
		}
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdminDashboard greets an administrator.
// GET /admin/dashboard
func (h *AuthHandler) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the admin dashboard, " + user.Name,
	})
}
