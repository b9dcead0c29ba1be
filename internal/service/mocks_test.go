package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/esther-anierobi/bookIT/internal/domain"
	"github.com/esther-anierobi/bookIT/internal/events"
	"github.com/esther-anierobi/bookIT/internal/store"
)

// In-memory store fakes shared by the service tests. They keep real state
// so multi-step scenarios (create, then conflict, then reschedule) behave
// like the database would, and they expose error fields for injecting
// infrastructure failures. WithTx returns the same instance; transactional
// behavior itself is covered by the store tests.

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB returns a sqlmock-backed database. Tests declare Begin/Commit
// or Begin/Rollback expectations for each transactional service call.
func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeBookingStore implements store.BookingStore in memory.
type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*domain.Booking

	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
	countErr  error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]*domain.Booking)}
}

func (f *fakeBookingStore) Create(ctx context.Context, booking *domain.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, store.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) Update(ctx context.Context, booking *domain.Booking) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[booking.ID]; !ok {
		return store.ErrBookingNotFound
	}
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return store.ErrBookingNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingStore) List(ctx context.Context, filters store.BookingFilters) ([]*domain.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*domain.Booking{}
	for _, b := range f.bookings {
		if filters.UserID != nil && b.UserID != *filters.UserID {
			continue
		}
		if filters.ServiceID != nil && b.ServiceID != *filters.ServiceID {
			continue
		}
		if filters.Status != nil && b.Status != *filters.Status {
			continue
		}
		if filters.From != nil && b.StartsAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && !b.StartsAt.Before(*filters.To) {
			continue
		}
		copied := *b
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartsAt.After(result[j].StartsAt)
	})
	return result, nil
}

func (f *fakeBookingStore) CountOverlapping(
	ctx context.Context,
	serviceID uuid.UUID,
	start, end time.Time,
	excludeID uuid.UUID,
) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, b := range f.bookings {
		if b.ServiceID != serviceID || b.ID == excludeID {
			continue
		}
		if b.Blocks() && b.Overlaps(start, end) {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingStore) WithTx(tx *sql.Tx) store.BookingStore {
	return f
}

func (f *fakeBookingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

// fakeServiceStore implements store.ServiceStore in memory.
type fakeServiceStore struct {
	mu       sync.Mutex
	services map[uuid.UUID]*domain.Service

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newFakeServiceStore() *fakeServiceStore {
	return &fakeServiceStore{services: make(map[uuid.UUID]*domain.Service)}
}

func (f *fakeServiceStore) Create(ctx context.Context, service *domain.Service) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *service
	f.services[service.ID] = &copied
	return nil
}

func (f *fakeServiceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	service, ok := f.services[id]
	if !ok {
		return nil, store.ErrServiceNotFound
	}
	copied := *service
	return &copied, nil
}

func (f *fakeServiceStore) Update(ctx context.Context, service *domain.Service) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.services[service.ID]; !ok {
		return store.ErrServiceNotFound
	}
	copied := *service
	f.services[service.ID] = &copied
	return nil
}

func (f *fakeServiceStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	service, ok := f.services[id]
	if !ok {
		return store.ErrServiceNotFound
	}
	service.IsActive = false
	return nil
}

func (f *fakeServiceStore) List(ctx context.Context, filters store.ServiceFilters) ([]*domain.Service, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*domain.Service{}
	for _, s := range f.services {
		if !filters.IncludeInactive && !s.IsActive {
			continue
		}
		copied := *s
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeServiceStore) WithTx(tx *sql.Tx) store.ServiceStore {
	return f
}

// fakeReviewStore implements store.ReviewStore in memory, enforcing the
// one-review-per-booking unique constraint like the database does.
type fakeReviewStore struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*domain.Review

	createErr error
	getErr    error
	statsErr  error
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: make(map[uuid.UUID]*domain.Review)}
}

func (f *fakeReviewStore) Create(ctx context.Context, review *domain.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == review.BookingID {
			return store.ErrReviewExists
		}
	}
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.reviews[id]
	if !ok {
		return nil, store.ErrReviewNotFound
	}
	copied := *review
	return &copied, nil
}

func (f *fakeReviewStore) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == bookingID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, store.ErrReviewNotFound
}

func (f *fakeReviewStore) Update(ctx context.Context, review *domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[review.ID]; !ok {
		return store.ErrReviewNotFound
	}
	copied := *review
	f.reviews[review.ID] = &copied
	return nil
}

func (f *fakeReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return store.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewStore) List(ctx context.Context, filters store.ReviewFilters) ([]*domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*domain.Review{}
	for _, r := range f.reviews {
		if filters.ServiceID != nil && r.ServiceID != *filters.ServiceID {
			continue
		}
		if filters.UserID != nil && r.UserID != *filters.UserID {
			continue
		}
		if filters.MinRating != nil && r.Rating < *filters.MinRating {
			continue
		}
		if filters.MaxRating != nil && r.Rating > *filters.MaxRating {
			continue
		}
		copied := *r
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeReviewStore) GetServiceStats(ctx context.Context, serviceID uuid.UUID) (*store.ReviewStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &store.ReviewStats{}
	sum := 0
	for _, r := range f.reviews {
		if r.ServiceID != serviceID {
			continue
		}
		if stats.Count == 0 || r.Rating < stats.Min {
			stats.Min = r.Rating
		}
		if r.Rating > stats.Max {
			stats.Max = r.Rating
		}
		stats.Count++
		sum += r.Rating
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats, nil
}

func (f *fakeReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return f
}

// fakeUserStore implements store.UserStore in memory, enforcing email
// uniqueness like the database does.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	getErr    error
	updateErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
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
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	for _, u := range f.users {
		if u.ID != user.ID && u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
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
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*domain.User{}
	for _, u := range f.users {
		if !u.IsActive {
			continue
		}
		copied := *u
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return f
}

// fakeEmitter records emitted task request events.
type fakeEmitter struct {
	mu      sync.Mutex
	emitted []*events.TaskRequestEvent
	emitErr error
}

func (f *fakeEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, event)
	return nil
}

// bookingEvents decodes the recorded payloads into booking events.
func (f *fakeEmitter) bookingEvents(t *testing.T) []events.BookingEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	decoded := make([]events.BookingEvent, 0, len(f.emitted))
	for _, e := range f.emitted {
		var event events.BookingEvent
		require.NoError(t, json.Unmarshal(e.Payload, &event))
		decoded = append(decoded, event)
	}
	return decoded
}

// Entity builders for test scenarios.

func newTestUser(role domain.UserRole) *domain.User {
	id := uuid.New()
	now := time.Now().UTC()
	return &domain.User{
		ID:             id,
		Email:          "user-" + id.String() + "@example.com",
		FullName:       "Test User",
		HashedPassword: "not-a-real-hash",
		Role:           role,
		Status:         domain.UserStatusActive,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func seedCatalogService(t *testing.T, services *fakeServiceStore, active bool) *domain.Service {
	t.Helper()
	service, err := domain.NewService(uuid.New(), "Deep Tissue Massage", "60 minute session", 9500, 60)
	require.NoError(t, err)
	service.IsActive = active
	require.NoError(t, services.Create(context.Background(), service))
	return service
}

func seedBooking(
	t *testing.T,
	bookings *fakeBookingStore,
	userID, serviceID uuid.UUID,
	startsAt, endsAt time.Time,
	status domain.BookingStatus,
) *domain.Booking {
	t.Helper()
	booking, err := domain.NewBooking(userID, serviceID, startsAt, endsAt)
	require.NoError(t, err)
	booking.Status = status
	require.NoError(t, bookings.Create(context.Background(), booking))
	return booking
}
