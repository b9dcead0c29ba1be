package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/esther-anierobi/bookIT/internal/domain"
)

func TestAllow(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	other := uuid.New()

	ownerScoped := []Action{
		ActionReadBooking,
		ActionUpdateBooking,
		ActionDeleteBooking,
		ActionReadUser,
		ActionUpdateUser,
		ActionUpdateReview,
		ActionDeleteReview,
	}

	adminOnly := []Action{
		ActionSetBookingStatus,
		ActionManageServices,
		ActionDeleteUser,
		ActionListAll,
	}

	t.Run("admin is allowed everything", func(t *testing.T) {
		t.Parallel()
		for _, action := range append(append([]Action{}, ownerScoped...), adminOnly...) {
			assert.True(t, Allow(domain.RoleAdmin, actor, other, action),
				"admin should be allowed %s on another user's resource", action)
			assert.True(t, Allow(domain.RoleAdmin, actor, actor, action),
				"admin should be allowed %s on their own resource", action)
		}
	})

	t.Run("owner is allowed owner-scoped actions", func(t *testing.T) {
		t.Parallel()
		for _, action := range ownerScoped {
			assert.True(t, Allow(domain.RoleUser, actor, actor, action),
				"owner should be allowed %s", action)
		}
	})

	t.Run("non-owner is denied owner-scoped actions", func(t *testing.T) {
		t.Parallel()
		for _, action := range ownerScoped {
			assert.False(t, Allow(domain.RoleUser, actor, other, action),
				"non-owner should be denied %s", action)
		}
	})

	t.Run("regular user is denied admin-only actions even on own resources", func(t *testing.T) {
		t.Parallel()
		for _, action := range adminOnly {
			assert.False(t, Allow(domain.RoleUser, actor, actor, action),
				"user should be denied %s", action)
		}
	})

	t.Run("nil actor is denied", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Allow(domain.RoleUser, uuid.Nil, uuid.Nil, ActionReadBooking))
	})

	t.Run("unknown action is denied for non-admins", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Allow(domain.RoleUser, actor, actor, Action("booking:teleport")))
	})
}
