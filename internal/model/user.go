package model

import (
	"errors"
	"time"
)

// User represents a user account in the system
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Nickname       *string   `db:"nickname" json:"nickname"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	BannerURL      *string   `db:"banner_url" json:"banner_url"`
	BannerKey      *string   `db:"banner_key" json:"-"`
	Bio            *string   `db:"bio" json:"bio"`
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	PostCount      int       `db:"post_count" json:"post_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserDTO is the externally safe shape of a user record. It never carries the
// password digest, and it exposes follower/following as counts only rather
// than the raw id lists.
type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Nickname  *string   `json:"nickname"`
	AvatarURL *string   `json:"avatar_url"`
	BannerURL *string   `json:"banner_url"`
	Bio       *string   `json:"bio"`
	Followers int       `json:"followers"`
	Following int       `json:"following"`
	Posts     int       `json:"posts"`
	CreatedAt time.Time `json:"created_at"`
}

// DTO converts a full user record into its external representation.
func (u *User) DTO() *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Nickname:  u.Nickname,
		AvatarURL: u.AvatarURL,
		BannerURL: u.BannerURL,
		Bio:       u.Bio,
		Followers: u.FollowerCount,
		Following: u.FollowingCount,
		Posts:     u.PostCount,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserRequest represents the data needed to register a new account.
// Email grammar is enforced by the validator before any row is written.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nickname string `json:"nickname" validate:"omitempty,max=50"`
}

// AuthenticateRequest represents the data needed to log in
type AuthenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries the profile fields a PATCH may change.
// Nil pointers mean "leave unchanged".
type UpdateUserRequest struct {
	Nickname *string `json:"nickname" validate:"omitempty,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

// AuthResponse is returned after a successful registration or authentication.
// The "authToken" field name is part of the client contract.
type AuthResponse struct {
	Message      string `json:"message"`
	AuthToken    string `json:"authToken"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// IncorrectCredentialsMessage is the exact 401 error body clients test against.
const IncorrectCredentialsMessage = "Incorrect email or password"

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidEmail is returned when the email does not match a valid address grammar
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidRequest is returned when a request body fails validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotProfileOwner is returned when a user tries to mutate someone else's profile
	ErrNotProfileOwner = errors.New("not the owner of this profile")

	// ErrNoRowsAffected is returned when a mutation reached the store but changed nothing
	ErrNoRowsAffected = errors.New("no rows affected")
)
