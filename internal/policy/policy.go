// Package policy implements the role-gated access checks evaluated before
// every mutating catalog, ledger or account operation. Grants are
// table-driven: adding a role or action is a data change.
package policy

import (
	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
)

type Action string

const (
	VenueCreate    Action = "venue.create"
	VenueUpdate    Action = "venue.update"
	VenueSetStatus Action = "venue.set_status"

	BookingCreate    Action = "booking.create"
	BookingConfirm   Action = "booking.confirm"
	BookingCancelOwn Action = "booking.cancel_own"
	BookingCancelAny Action = "booking.cancel_any"
	BookingListAll   Action = "booking.list_all"
	PaymentRecord    Action = "booking.record_payment"

	UsersInvite Action = "users.invite"
	UsersManage Action = "users.manage"

	AuditView Action = "audit.view"
)

// Actor is the authenticated caller, resolved at the transport boundary and
// threaded explicitly into every service call.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
	// City scopes city owners; VenueIDs scope venue managers.
	City     string
	VenueIDs []int64
}

// Target identifies what an action applies to. Zero fields mean "no such
// dimension" (e.g. inviting a user has no venue).
type Target struct {
	VenueID   int64
	VenueCity string
	OwnerID   uuid.UUID
}

// grants enumerates the capability set per role. Each role's set is a
// superset of the previous one: user < venue_manager < city_owner < super_admin.
var grants = map[domain.Role]map[Action]bool{
	domain.RoleUser: {
		BookingCreate:    true,
		BookingCancelOwn: true,
	},
	domain.RoleVenueManager: {
		BookingCreate:    true,
		BookingCancelOwn: true,
		BookingConfirm:   true,
		BookingCancelAny: true,
		VenueUpdate:      true,
		VenueSetStatus:   true,
	},
	domain.RoleCityOwner: {
		BookingCreate:    true,
		BookingCancelOwn: true,
		BookingConfirm:   true,
		BookingCancelAny: true,
		VenueCreate:      true,
		VenueUpdate:      true,
		VenueSetStatus:   true,
		UsersInvite:      true,
		UsersManage:      true,
	},
	domain.RoleSuperAdmin: {
		BookingCreate:    true,
		BookingCancelOwn: true,
		BookingConfirm:   true,
		BookingCancelAny: true,
		BookingListAll:   true,
		PaymentRecord:    true,
		VenueCreate:      true,
		VenueUpdate:      true,
		VenueSetStatus:   true,
		UsersInvite:      true,
		UsersManage:      true,
		AuditView:        true,
	},
}

// Can reports whether the actor may perform action on target. A denial is
// surfaced by callers as a Forbidden error, never a silent no-op.
func Can(actor Actor, action Action, target Target) bool {
	if !grants[actor.Role][action] {
		return false
	}

	return inScope(actor, action, target)
}

func inScope(actor Actor, action Action, target Target) bool {
	if action == BookingCancelOwn || action == BookingCreate {
		if target.OwnerID != uuid.Nil && target.OwnerID != actor.ID {
			return false
		}
		return true
	}

	switch actor.Role {
	case domain.RoleSuperAdmin:
		return true
	case domain.RoleCityOwner:
		if target.VenueCity == "" {
			return true
		}
		return target.VenueCity == actor.City
	case domain.RoleVenueManager:
		if target.VenueID == 0 {
			return false
		}
		for _, id := range actor.VenueIDs {
			if id == target.VenueID {
				return true
			}
		}
		return false
	default:
		return false
	}
}
