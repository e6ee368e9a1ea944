package handler

import (
	"time"

	"github.com/msomdec/taskdesk/internal/domain"
)

// UserDTO is the JSON representation of a user. The password hash is
// never included.
type UserDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ProfilePic string `json:"profilePic,omitempty"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		ProfilePic: u.ProfilePicURL,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
