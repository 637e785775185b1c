package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
	RoleUser    = "User"
)

// User is the stored account record, secrets included. It never leaves the
// service layer; handlers work with UserProfile.
type User struct {
	ID                   uuid.UUID
	Name                 string
	Email                string
	Phone                string
	PasswordHash         string
	Role                 string
	Avatar               string
	Address              string
	IsActive             bool
	ResetPasswordToken   *string
	ResetPasswordExpires *time.Time
	LastLoginAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// UserProfile is the client-facing projection of a User.
type UserProfile struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	Avatar      string     `json:"avatar"`
	Address     string     `json:"address"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Profile strips the password hash and reset token.
func (u *User) Profile() *UserProfile {
	return &UserProfile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		Avatar:      u.Avatar,
		Address:     u.Address,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UpdateProfileParams defines the fields allowed for profile updates.
// Use pointers for optional fields, allowing partial updates.
type UpdateProfileParams struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=1000"`
	Avatar  *string `json:"avatar,omitempty" validate:"omitempty,max=2048"`
}

type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

type UserList struct {
	Users      []UserProfile `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// NewPagination computes the page count for total items split by limit.
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Pages: pages}
}
