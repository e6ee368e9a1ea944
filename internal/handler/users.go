package handler

import (
	"net/http"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/service"
)

// UserHandler serves the administrator user-management routes.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleList returns every user.
// GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTOs(users))
}

// HandleGet returns one user.
// GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, userNotFound(err))
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleCreate adds a user with an explicit role.
// POST /users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleUpdate applies a partial update. Administrators cannot change their
// own role.
// PUT /users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		respondError(w, r, errInvalidBody)
		return
	}

	id := r.PathValue("id")
	patch := service.UserPatch{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		caller := UserFromContext(r.Context())
		if caller != nil && caller.ID == id && role != caller.Role {
			respondError(w, r, withMessage(domain.ErrInvalidInput, "You cannot change your own role"))
			return
		}
		patch.Role = &role
	}

	user, err := h.users.Update(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, userNotFound(err))
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// HandleDelete removes a user. Administrators cannot delete themselves.
// DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if caller := UserFromContext(r.Context()); caller != nil && caller.ID == id {
		respondError(w, r, withMessage(domain.ErrInvalidInput, "You cannot delete your own account"))
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, r, userNotFound(err))
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "User with id " + id + " deleted",
	})
}

func userNotFound(err error) error {
	if isNotFound(err) {
		return withMessage(err, "User not found")
	}
	return err
}
