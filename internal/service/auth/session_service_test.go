package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// fakeRevokedTokenStore is an in-memory revocation ledger for tests.
// WithTx returns the same instance; transactional behavior itself is covered
// by the store tests.
type fakeRevokedTokenStore struct {
	mu           sync.Mutex
	entries      map[string]*domain.RevokedToken
	insertErr    error
	isRevokedErr error
}

func newFakeRevokedTokenStore() *fakeRevokedTokenStore {
	return &fakeRevokedTokenStore{entries: make(map[string]*domain.RevokedToken)}
}

func (f *fakeRevokedTokenStore) Insert(ctx context.Context, entry *domain.RevokedToken) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entry.JTI]; ok {
		return nil
	}
	f.entries[entry.JTI] = entry
	return nil
}

func (f *fakeRevokedTokenStore) IsRevoked(ctx context.Context, jti string, now time.Time) (bool, error) {
	if f.isRevokedErr != nil {
		return false, f.isRevokedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[jti]
	if !ok {
		return false, nil
	}
	return entry.ExpiresAt.After(now), nil
}

func (f *fakeRevokedTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for jti, entry := range f.entries {
		if !entry.ExpiresAt.After(now) {
			delete(f.entries, jti)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeRevokedTokenStore) WithTx(tx *sql.Tx) store.RevokedTokenStore {
	return f
}

func (f *fakeRevokedTokenStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeUserStore is an in-memory user store keyed by ID.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.IsActive = false
	return nil
}

func (f *fakeUserStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	return nil, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return f
}

// setUser mutates a stored user in place, bypassing the store contract.
func (f *fakeUserStore) setUser(id uuid.UUID, mutate func(u *domain.User)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(f.users[id])
}

// seedSessionUser registers an active user in the fake store.
func seedSessionUser(users *fakeUserStore) *domain.User {
	id := uuid.New()
	user := &domain.User{
		ID:             id,
		Email:          fmt.Sprintf("session-user-%s@example.com", id),
		FullName:       "Session Tester",
		HashedPassword: "not-a-real-hash",
		Role:           domain.RoleUser,
		Status:         domain.UserStatusActive,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	_ = users.Create(context.Background(), user)
	return user
}

// newTestSessionService wires a session service against the fake stores and
// a sqlmock database. The caller declares Begin/Commit expectations for each
// operation that opens a transaction.
func newTestSessionService(
	t *testing.T,
	timeFunc func() time.Time,
) (*sessionService, *fakeRevokedTokenStore, *fakeUserStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	revoked := newFakeRevokedTokenStore()
	users := newFakeUserStore()
	svc := &sessionService{
		jwtService:   newTestJWTService("session-test-secret-that-is-32-chars!", 30*time.Minute, timeFunc),
		userStore:    users,
		revokedStore: revoked,
		db:           db,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeFunc:     timeFunc,
	}
	return svc, revoked, users, mock
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestSessionPairRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, users, _ := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	// Expiries mirror what the tokens themselves carry. The test JWT service
	// uses a 30 minute access lifetime and 24x that for refresh.
	assert.True(t, pair.AccessExpiresAt.Equal(now.Add(30*time.Minute)))
	assert.True(t, pair.RefreshExpiresAt.Equal(now.Add(12*time.Hour)))

	verified, err := svc.VerifyAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	verified, err = svc.VerifyRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	// The two tokens carry distinct jtis so they can be revoked independently.
	accessClaims, err := svc.jwtService.ExtractClaims(ctx, pair.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := svc.jwtService.ExtractClaims(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID)
}

func TestVerifyRejectsRevokedToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, users, mock := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.RevokeSession(ctx, pair.AccessToken, pair.RefreshToken))

	_, err = svc.VerifyAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.VerifyRefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRejectsDeactivatedUser(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, users, _ := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	// Soft-delete the account after the tokens were issued.
	users.setUser(user.ID, func(u *domain.User) { u.IsActive = false })

	_, err = svc.VerifyAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = svc.VerifyRefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestVerifyRejectsUnknownSubject(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestSessionService(t, fixedClock(now))
	ctx := context.Background()

	// Token for a user that was never created.
	pair, err := svc.IssueSessionPair(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestRotateSessionSingleUse(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _, users, mock := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	newPair, err := svc.RotateSession(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, newPair.AccessToken)
	require.NotEmpty(t, newPair.RefreshToken)

	// The new pair authenticates.
	verified, err := svc.VerifyAccessToken(ctx, newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	// The spent refresh token cannot mint a second pair.
	_, err = svc.RotateSession(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateSessionRejectsLoggedOutUser(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, users, _ := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	// Logout flips the session status; the leftover refresh token must not
	// restart the session. No transaction is opened.
	users.setUser(user.ID, func(u *domain.User) { u.Status = domain.UserStatusInactive })

	_, err = svc.RotateSession(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, revoked.count())
}

func TestRotateSessionFailureKeepsOldToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, users, mock := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	// Ledger write fails inside the transaction; everything rolls back.
	revoked.insertErr = errors.New("ledger unavailable")
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = svc.RotateSession(ctx, pair.RefreshToken)
	require.Error(t, err)

	// The presented token survives a failed rotation.
	revoked.insertErr = nil
	verified, err := svc.VerifyRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSessionIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, users, mock := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.RevokeSession(ctx, pair.AccessToken, pair.RefreshToken))
	require.Equal(t, 2, revoked.count())

	// Revoking the same tokens again succeeds and changes nothing.
	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.RevokeSession(ctx, pair.AccessToken, pair.RefreshToken))
	assert.Equal(t, 2, revoked.count())

	_, err = svc.VerifyAccessToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSessionSkipsExpiredTokens(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, users, mock := newTestSessionService(t, fixedClock(issuedAt))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	// Move the clock past both expiries. Revoking dead tokens writes nothing:
	// no transaction is opened, so no sqlmock expectations are declared.
	svc.timeFunc = fixedClock(issuedAt.Add(31 * 24 * time.Hour))

	require.NoError(t, svc.RevokeSession(ctx, pair.AccessToken, pair.RefreshToken))
	assert.Equal(t, 0, revoked.count())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeSessionRejectsForgedToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, _, _ := newTestSessionService(t, fixedClock(now))
	ctx := context.Background()

	// Signed with a different key.
	forged, err := newTestJWTService("some-other-secret-that-is-32-chars!!", time.Hour, fixedClock(now)).
		GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	err = svc.RevokeSession(ctx, forged, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, 0, revoked.count())
}

func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, _, _ := newTestSessionService(t, fixedClock(now))
	ctx := context.Background()

	expired, err := domain.NewRevokedToken(uuid.New().String(), uuid.New(), "", now.Add(-time.Minute))
	require.NoError(t, err)
	live, err := domain.NewRevokedToken(uuid.New().String(), uuid.New(), "", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, revoked.Insert(ctx, expired))
	require.NoError(t, revoked.Insert(ctx, live))

	removed, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The live entry still blocks its jti.
	stillRevoked, err := revoked.IsRevoked(ctx, live.JTI, now)
	require.NoError(t, err)
	assert.True(t, stillRevoked)
}

func TestVerifyAccessTokenLedgerError(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, revoked, users, _ := newTestSessionService(t, fixedClock(now))
	user := seedSessionUser(users)
	ctx := context.Background()

	pair, err := svc.IssueSessionPair(ctx, user.ID)
	require.NoError(t, err)

	// A ledger failure must not let the token through.
	revoked.isRevokedErr = errors.New("ledger unavailable")
	_, err = svc.VerifyAccessToken(ctx, pair.AccessToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenRevoked)
}
