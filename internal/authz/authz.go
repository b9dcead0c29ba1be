// Package authz implements the platform's authorization policy as a
// single pure decision function. Services and HTTP handlers consult it
// instead of carrying their own ownership checks, so the policy can be
// tested in isolation and changed in one place.
package authz

import (
	"github.com/google/uuid"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

// Action names an operation subject to authorization.
type Action string

// Owner-scoped actions: permitted for admins and for the resource owner.
const (
	ActionReadBooking   Action = "booking:read"
	ActionUpdateBooking Action = "booking:update"
	ActionDeleteBooking Action = "booking:delete"
	ActionReadUser      Action = "user:read"
	ActionUpdateUser    Action = "user:update"
	ActionUpdateReview  Action = "review:update"
	ActionDeleteReview  Action = "review:delete"
)

// Admin-only actions.
const (
	// ActionSetBookingStatus covers status changes outside the transitions
	// a booking owner may perform themselves.
	ActionSetBookingStatus Action = "booking:set_status"

	// ActionManageServices covers catalog writes (create, update, deactivate).
	ActionManageServices Action = "service:manage"

	// ActionDeleteUser covers soft-deleting a user account.
	ActionDeleteUser Action = "user:delete"

	// ActionListAll covers unscoped listings of users, bookings and reviews.
	ActionListAll Action = "admin:list_all"
)

// Allow reports whether an actor with the given role may perform the named
// action on a resource owned by ownerID. Admins may do everything. Other
// actors may perform owner-scoped actions on their own resources only.
// Pure function, no I/O.
func Allow(role domain.UserRole, actorID, ownerID uuid.UUID, action Action) bool {
	if role == domain.RoleAdmin {
		return true
	}

	switch action {
	case ActionReadBooking,
		ActionUpdateBooking,
		ActionDeleteBooking,
		ActionReadUser,
		ActionUpdateUser,
		ActionUpdateReview,
		ActionDeleteReview:
		return actorID != uuid.Nil && actorID == ownerID
	default:
		return false
	}
}
