package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/config"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
)

// Token type claim values. The type claim prevents a refresh token from being
// replayed as an access token and vice versa.
const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey           []byte
	tokenLifetime        time.Duration    // Access token lifetime
	refreshTokenLifetime time.Duration    // Refresh token lifetime
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed time difference for validation to handle clock drift
}

// tokenClaims is the wire-format claim set: type plus the registered
// sub, jti, iat and exp claims. The subject carries the user ID.
type tokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	// Validate that the secret meets minimum length requirements
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:           []byte(cfg.JWTSecret),
		tokenLifetime:        cfg.AccessTokenTTL,
		refreshTokenLifetime: cfg.RefreshTokenTTL,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute, // Tolerate minor clock drift between issuer and verifier
	}, nil
}

// GenerateToken creates a signed JWT access token for the given user.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.sign(ctx, userID, accessTokenType, s.tokenLifetime)
}

// GenerateRefreshToken creates a signed JWT refresh token for the given user.
// Refresh tokens have a longer lifetime than access tokens and are used to
// obtain new token pairs.
func (s *hmacJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.sign(ctx, userID, refreshTokenType, s.refreshTokenLifetime)
}

// sign builds and signs a token of the given type. Every token gets a fresh
// jti so individual tokens can be revoked independently.
func (s *hmacJWTService) sign(
	ctx context.Context,
	userID uuid.UUID,
	tokenType string,
	lifetime time.Duration,
) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT token",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT access token and returns the claims if valid.
// It verifies the token has type "access" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	claims, err := s.parse(tokenString)
	if err != nil {
		// Check for specific JWT validation errors
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("access token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("access token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("access token validation failed: malformed token", "error", err)
			return nil, ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("access token validation failed: invalid signature", "error", err)
			return nil, ErrInvalidToken
		default:
			log.Debug("access token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	if claims.TokenType != accessTokenType {
		log.Debug("token validation failed: wrong token type",
			"expected", accessTokenType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	result, err := toClaims(claims)
	if err != nil {
		log.Debug("access token validation failed: invalid claims", "error", err)
		return nil, ErrInvalidToken
	}

	log.Debug("access token validated successfully",
		"user_id", result.UserID,
		"token_id", result.ID,
		"expiry", result.ExpiresAt)

	return result, nil
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if
// valid. It verifies the token has type "refresh" and returns ErrWrongTokenType
// if not. Returns appropriate errors for expiration and invalid signatures.
func (s *hmacJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	claims, err := s.parse(tokenString)
	if err != nil {
		// Check for specific JWT validation errors
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("refresh token validation failed: token expired", "error", err)
			return nil, ErrExpiredRefreshToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("refresh token validation failed: malformed token", "error", err)
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("refresh token validation failed: invalid signature", "error", err)
			return nil, ErrInvalidRefreshToken
		default:
			log.Debug("refresh token validation failed",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidRefreshToken
		}
	}

	if claims.TokenType != refreshTokenType {
		log.Debug("refresh token validation failed: wrong token type",
			"expected", refreshTokenType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	result, err := toClaims(claims)
	if err != nil {
		log.Debug("refresh token validation failed: invalid claims", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	log.Debug("refresh token validated successfully",
		"user_id", result.UserID,
		"token_id", result.ID,
		"expiry", result.ExpiresAt)

	return result, nil
}

// ExtractClaims parses a token of either type, verifying the signature but not
// the time-based claims. An expired token still yields its claims so it can be
// written to the revocation ledger.
func (s *hmacJWTService) ExtractClaims(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	claims, err := s.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		log.Debug("claim extraction failed", "error", err)
		return nil, ErrInvalidToken
	}

	result, err := toClaims(claims)
	if err != nil {
		log.Debug("claim extraction failed: invalid claims", "error", err)
		return nil, ErrInvalidToken
	}

	return result, nil
}

// parse verifies the token signature and, unless overridden by extraOpts,
// the registered time claims. The validated claim set is returned.
func (s *hmacJWTService) parse(tokenString string, extraOpts ...jwt.ParserOption) (*tokenClaims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew), // Allow for clock skew when validating time claims
		jwt.WithTimeFunc(s.timeFunc),
		jwt.WithExpirationRequired(),
	}
	parserOpts = append(parserOpts, extraOpts...)

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method is what we expect
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// toClaims converts the wire-format claim set into the public Claims type.
// Tokens without a parseable subject or a jti are rejected: the revocation
// ledger is keyed by jti, so a token without one can never be revoked.
func toClaims(tc *tokenClaims) (*Claims, error) {
	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	if tc.ID == "" {
		return nil, fmt.Errorf("missing jti claim")
	}

	claims := &Claims{
		UserID:    userID,
		TokenType: tc.TokenType,
		Subject:   tc.Subject,
		ID:        tc.ID,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	return claims, nil
}
