package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/authz"
	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/platform/logger"
	"github.com/esther-anierobi/bookIT/internal/service/auth"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// SessionRevoker revokes issued tokens on logout. Implemented by the auth
// session service.
type SessionRevoker interface {
	// RevokeSession adds the tokens' jtis to the revocation ledger.
	RevokeSession(ctx context.Context, accessToken, refreshToken string) error
}

// UserPatch carries the fields of a profile update request. Nil fields are
// left unchanged.
type UserPatch struct {
	Email    *string
	FullName *string
	Password *string
}

// UserService provides account lifecycle operations: registration, login,
// logout, profile updates and the admin-facing user management surface.
type UserService interface {
	// Register creates a new account. Re-registering the email of a
	// soft-deleted account reactivates that account in place, keeping its
	// ID and history. Returns store.ErrEmailExists when the email belongs
	// to an active account.
	Register(ctx context.Context, email, password, fullName string) (*domain.User, error)

	// Login verifies the credentials and marks the user's session status
	// active. Unknown emails, wrong passwords and soft-deleted accounts all
	// fail with ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.User, error)

	// Logout revokes the presented tokens and marks the user's session
	// status inactive, which blocks refresh-token rotation until the next
	// login.
	Logout(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string) error

	// GetUser retrieves a user visible to the actor: themselves or an admin.
	// Returns domain.ErrForbidden or store.ErrUserNotFound.
	GetUser(ctx context.Context, actor *domain.User, userID uuid.UUID) (*domain.User, error)

	// UpdateUser modifies a user's profile. Users may update themselves;
	// admins may update anyone. Returns domain.ErrForbidden,
	// store.ErrUserNotFound or store.ErrEmailExists.
	UpdateUser(ctx context.Context, actor *domain.User, userID uuid.UUID, patch UserPatch) (*domain.User, error)

	// DeactivateUser soft-deletes a user account. Admin only. The user's
	// outstanding tokens stop verifying immediately because token subjects
	// must resolve to an active user.
	DeactivateUser(ctx context.Context, actor *domain.User, userID uuid.UUID) error

	// ListUsers returns active users, newest first. Admin only.
	ListUsers(ctx context.Context, actor *domain.User, limit, offset int) ([]*domain.User, error)
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userStore      store.UserStore
	db             *sql.DB
	passwordHasher auth.PasswordHasher
	passwordVerify auth.PasswordVerifier
	sessionRevoker SessionRevoker
	logger         *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	passwordHasher auth.PasswordHasher,
	passwordVerifier auth.PasswordVerifier,
	sessionRevoker SessionRevoker,
	logger *slog.Logger,
) UserService {
	return &UserServiceImpl{
		userStore:      userStore,
		db:             db,
		passwordHasher: passwordHasher,
		passwordVerify: passwordVerifier,
		sessionRevoker: sessionRevoker,
		logger:         logger.With("component", "user_service"),
	}
}

// normalizeEmail canonicalizes an email address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register implements UserService.Register.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	email, password, fullName string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	email = normalizeEmail(email)

	user, err := domain.NewUser(email, password, fullName)
	if err != nil {
		log.Debug("invalid registration data",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hashed, err := s.passwordHasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	var registered *domain.User

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		existing, err := txStore.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.IsActive:
			log.Debug("attempted to register an existing email", "email", email)
			return fmt.Errorf("email is taken: %w", store.ErrEmailExists)

		case err == nil:
			// The email belongs to a soft-deleted account. Reactivate it in
			// place so the account keeps its ID, role and booking history.
			existing.FullName = fullName
			existing.HashedPassword = hashed
			existing.Password = ""
			existing.IsActive = true
			existing.Status = domain.UserStatusActive
			if err := txStore.Update(ctx, existing); err != nil {
				return fmt.Errorf("failed to reactivate user: %w", err)
			}
			registered = existing
			return nil

		case errors.Is(err, store.ErrUserNotFound):
			if err := txStore.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			registered = user
			return nil

		default:
			return fmt.Errorf("failed to look up email: %w", err)
		}
	})
	if err != nil {
		if !errors.Is(err, store.ErrEmailExists) {
			log.Error("failed to register user",
				"error", err,
				"email", email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered",
		"user_id", registered.ID,
		"email", registered.Email)

	return registered, nil
}

// Login implements UserService.Login.
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	email = normalizeEmail(email)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login failed: unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to retrieve user for login",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	// Soft-deleted accounts cannot log in. Reported exactly like a wrong
	// password so existence is not leaked.
	if !user.IsActive {
		log.Debug("login failed: account deactivated", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if err := s.passwordVerify.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed: password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if user.Status != domain.UserStatusActive {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			txStore := s.userStore.WithTx(tx)

			fresh, err := txStore.GetByID(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("failed to retrieve user: %w", err)
			}
			fresh.Status = domain.UserStatusActive
			if err := txStore.Update(ctx, fresh); err != nil {
				return fmt.Errorf("failed to update user status: %w", err)
			}
			user = fresh
			return nil
		})
		if err != nil {
			log.Error("failed to mark user active on login",
				"error", err,
				"user_id", user.ID)
			return nil, fmt.Errorf("failed to log in: %w", err)
		}
	}

	log.Info("user logged in", "user_id", user.ID)

	return user, nil
}

// Logout implements UserService.Logout.
func (s *UserServiceImpl) Logout(
	ctx context.Context,
	userID uuid.UUID,
	accessToken, refreshToken string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Revoke first. If revocation fails the user stays logged in rather
	// than ending up logged out with live tokens.
	if err := s.sessionRevoker.RevokeSession(ctx, accessToken, refreshToken); err != nil {
		log.Error("failed to revoke session on logout",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user: %w", err)
		}
		user.Status = domain.UserStatusInactive
		if err := txStore.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to mark user inactive on logout",
			"error", err,
			"user_id", userID)
		return fmt.Errorf("failed to log out: %w", err)
	}

	log.Info("user logged out", "user_id", userID)

	return nil
}

// GetUser implements UserService.GetUser.
func (s *UserServiceImpl) GetUser(
	ctx context.Context,
	actor *domain.User,
	userID uuid.UUID,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, userID, authz.ActionReadUser) {
		log.Debug("user read denied",
			"actor_id", actor.ID,
			"user_id", userID)
		return nil, fmt.Errorf("cannot read user: %w", domain.ErrForbidden)
	}

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found", "user_id", userID)
		} else {
			log.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// UpdateUser implements UserService.UpdateUser.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	actor *domain.User,
	userID uuid.UUID,
	patch UserPatch,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, userID, authz.ActionUpdateUser) {
		log.Debug("user update denied",
			"actor_id", actor.ID,
			"user_id", userID)
		return nil, fmt.Errorf("cannot update user: %w", domain.ErrForbidden)
	}

	var updated *domain.User

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				log.Debug("user not found for update", "user_id", userID)
			} else {
				log.Error("failed to retrieve user for update",
					"error", err,
					"user_id", userID)
			}
			return fmt.Errorf("failed to retrieve user: %w", err)
		}

		if patch.Email != nil {
			user.Email = normalizeEmail(*patch.Email)
		}
		if patch.FullName != nil {
			user.FullName = *patch.FullName
		}
		if patch.Password != nil {
			// Validation below checks the plaintext length bounds before
			// the hash replaces it.
			user.Password = *patch.Password
		}

		if err := user.Validate(); err != nil {
			log.Debug("invalid user update",
				"error", err,
				"user_id", userID)
			return fmt.Errorf("invalid user: %w", err)
		}

		if patch.Password != nil {
			hashed, err := s.passwordHasher.Hash(*patch.Password)
			if err != nil {
				log.Error("failed to hash password", "error", err)
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.HashedPassword = hashed
			user.Password = ""
		}

		if err := txStore.Update(ctx, user); err != nil {
			if errors.Is(err, store.ErrEmailExists) {
				log.Debug("attempted to update to an existing email",
					"user_id", userID)
			} else {
				log.Error("failed to update user",
					"error", err,
					"user_id", userID)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", "user_id", updated.ID)

	return updated, nil
}

// DeactivateUser implements UserService.DeactivateUser.
func (s *UserServiceImpl) DeactivateUser(
	ctx context.Context,
	actor *domain.User,
	userID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionDeleteUser) {
		log.Debug("user deactivation denied",
			"actor_id", actor.ID,
			"user_id", userID)
		return fmt.Errorf("cannot deactivate user: %w", domain.ErrForbidden)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Deactivate(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("user not found for deactivation", "user_id", userID)
		} else {
			log.Error("failed to deactivate user",
				"error", err,
				"user_id", userID)
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	log.Info("user deactivated", "user_id", userID)

	return nil
}

// ListUsers implements UserService.ListUsers.
func (s *UserServiceImpl) ListUsers(
	ctx context.Context,
	actor *domain.User,
	limit, offset int,
) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !authz.Allow(actor.Role, actor.ID, uuid.Nil, authz.ActionListAll) {
		log.Debug("user listing denied", "actor_id", actor.ID)
		return nil, fmt.Errorf("cannot list users: %w", domain.ErrForbidden)
	}

	users, err := s.userStore.List(ctx, limit, offset)
	if err != nil {
		log.Error("failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
