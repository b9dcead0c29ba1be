package domain

import (
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// UserRole determines which operations a user may perform.
type UserRole string

// Possible user roles
const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// UserStatus tracks whether a user currently holds an open session.
// Logging in sets the status to active; logging out sets it to inactive.
type UserStatus string

// Possible user status values
const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Common validation errors for User
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrMalformedEmail      = errors.New("invalid email format")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrInvalidUserRole     = errors.New("invalid user role")
	ErrInvalidUserStatus   = errors.New("invalid user status")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User represents a registered user of the bookings platform.
// IsActive is the soft-delete flag: inactive users are invisible to
// authentication and listings but their bookings remain on record.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Password       string     `json:"-"` // Plaintext password, used transiently during registration/updates
	HashedPassword string     `json:"-"` // Never expose password hash in JSON
	Role           UserRole   `json:"role"`
	Status         UserStatus `json:"status"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewUser creates a new User with the given email, password and full name.
// It generates a new UUID for the user ID, assigns the default role and an
// active status, and sets the creation/update timestamps.
// Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext
// password. The caller is responsible for hashing the password before
// storing the user.
func NewUser(email, password, fullName string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		FullName:  fullName,
		Password:  password, // Plaintext password, must be hashed before storage
		Role:      RoleUser,
		Status:    UserStatusActive,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if _, err := mail.ParseAddress(u.Email); err != nil {
		return ErrMalformedEmail
	}

	if u.Password != "" {
		// When a plaintext password is present, validate its length.
		// The upper bound is bcrypt's input limit.
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the database carry only the hash.
		return ErrEmptyPassword
	}

	if !isValidUserRole(u.Role) {
		return ErrInvalidUserRole
	}

	if !isValidUserStatus(u.Status) {
		return ErrInvalidUserStatus
	}

	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// isValidUserRole checks if the given role is a valid UserRole.
func isValidUserRole(role UserRole) bool {
	switch role {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// isValidUserStatus checks if the given status is a valid UserStatus.
func isValidUserStatus(status UserStatus) bool {
	switch status {
	case UserStatusActive, UserStatusInactive:
		return true
	default:
		return false
	}
}
