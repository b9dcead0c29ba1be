package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for RevokedToken
var (
	ErrEmptyTokenID    = errors.New("token jti cannot be empty")
	ErrZeroTokenExpiry = errors.New("token expiry is required")
)

// RevokedToken is an entry in the token revocation ledger. A token whose
// jti appears in the ledger with ExpiresAt in the future can never again
// authenticate a request. Entries whose expiry has passed are inert: the
// token they describe is already dead on its own, so they may be purged
// at any time without affecting correctness.
type RevokedToken struct {
	JTI       string    `json:"jti"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"` // Raw token string, retained for audit only
	ExpiresAt time.Time `json:"expires_at"`
	RevokedAt time.Time `json:"revoked_at"`
}

// NewRevokedToken creates a ledger entry for the given jti. The expiry is
// the token's own exp claim; revocation of a token never outlives the
// token itself. Returns an error if validation fails.
func NewRevokedToken(jti string, userID uuid.UUID, token string, expiresAt time.Time) (*RevokedToken, error) {
	entry := &RevokedToken{
		JTI:       jti,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
		RevokedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the RevokedToken has valid data.
// Returns an error if any field fails validation.
func (t *RevokedToken) Validate() error {
	if t.JTI == "" {
		return ErrEmptyTokenID
	}

	if t.ExpiresAt.IsZero() {
		return ErrZeroTokenExpiry
	}

	return nil
}

// Expired reports whether the ledger entry is inert at the given time.
func (t *RevokedToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
