package user

import (
	"time"

	"GameStore/pkg/apperr"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUsernameTaken          = apperr.Conflict("USERNAME_ALREADY_EXISTS", "Username already exists")
	ErrEmailTaken             = apperr.Conflict("EMAIL_ALREADY_EXISTS", "Email already registered")
	ErrInvalidCredentials     = apperr.Unauthorized("INVALID_CREDENTIALS", "Invalid username or password")
	ErrAccountDisabled        = apperr.Forbidden("ACCOUNT_DISABLED", "Account is disabled")
	ErrInvalidRefreshToken    = apperr.Unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	ErrInvalidResetToken      = apperr.BadRequest("INVALID_RESET_TOKEN", "Invalid or expired reset token")
	ErrInvalidCurrentPassword = apperr.Unauthorized("INVALID_CURRENT_PASSWORD", "Current password is incorrect")
	ErrUserNotFound           = apperr.NotFound("USER_NOT_FOUND", "User not found")
	ErrNotAllowed             = apperr.Forbidden("INSUFFICIENT_PERMISSIONS", "Insufficient permissions")
)

type User struct {
	ID           int64      `db:"id" json:"id,string"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"firstName"`
	LastName     string     `db:"last_name" json:"lastName"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) identity() utils.Identity {
	return utils.Identity{UserID: u.ID, UserName: u.Username, Email: u.Email, Role: u.Role}
}

// Session is cached at user:{id} for the lifetime of the refresh token. Only the refresh
// token whose jti matches may be exchanged.
type Session struct {
	UserID     int64     `json:"userId,string"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	RefreshJTI string    `json:"refreshJti"`
	LoginAt    time.Time `json:"loginAt"`
}

type AuthResult struct {
	User   *User            `json:"user"`
	Tokens *utils.TokenPair `json:"tokens"`
}

type ListResult struct {
	Users      []User              `json:"users"`
	Pagination response.Pagination `json:"pagination"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
}

// LoginRequest accepts either the username or the email in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
}

type UpdateProfileRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName *string `json:"firstName" binding:"omitempty,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
}

// AdminUpdateRequest is UpdateProfileRequest plus the fields only admins may change.
type AdminUpdateRequest struct {
	UpdateProfileRequest
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"isActive"`
}

type ListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}
