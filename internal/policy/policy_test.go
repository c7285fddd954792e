package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/venuebook/venuebook/internal/domain"
)

func TestCanRoleHierarchy(t *testing.T) {
	// Every grant of a lower role must also hold for the higher roles.
	order := []domain.Role{
		domain.RoleUser,
		domain.RoleVenueManager,
		domain.RoleCityOwner,
		domain.RoleSuperAdmin,
	}

	for i, lower := range order[:len(order)-1] {
		for action := range grants[lower] {
			for _, higher := range order[i+1:] {
				if !grants[higher][action] {
					t.Errorf("role %s missing %s granted to %s", higher, action, lower)
				}
			}
		}
	}
}

func TestCanUser(t *testing.T) {
	me := Actor{ID: uuid.New(), Role: domain.RoleUser}
	other := uuid.New()

	if !Can(me, BookingCreate, Target{VenueID: 1, OwnerID: me.ID}) {
		t.Error("user must be able to create own booking")
	}
	if !Can(me, BookingCancelOwn, Target{OwnerID: me.ID}) {
		t.Error("user must be able to cancel own booking")
	}
	if Can(me, BookingCancelOwn, Target{OwnerID: other}) {
		t.Error("user must not cancel someone else's booking")
	}
	if Can(me, BookingConfirm, Target{VenueID: 1}) {
		t.Error("user must not confirm bookings")
	}
	if Can(me, VenueCreate, Target{}) {
		t.Error("user must not create venues")
	}
	if Can(me, BookingListAll, Target{}) {
		t.Error("user must not list all bookings")
	}
}

func TestCanVenueManagerScope(t *testing.T) {
	mgr := Actor{ID: uuid.New(), Role: domain.RoleVenueManager, VenueIDs: []int64{1, 3}}

	if !Can(mgr, BookingConfirm, Target{VenueID: 1}) {
		t.Error("manager must confirm bookings on managed venue")
	}
	if Can(mgr, BookingConfirm, Target{VenueID: 2}) {
		t.Error("manager must not touch bookings on unmanaged venue")
	}
	if !Can(mgr, VenueUpdate, Target{VenueID: 3}) {
		t.Error("manager must update managed venue")
	}
	if Can(mgr, VenueCreate, Target{}) {
		t.Error("manager must not create venues")
	}
}

func TestCanCityOwnerScope(t *testing.T) {
	owner := Actor{ID: uuid.New(), Role: domain.RoleCityOwner, City: "Helsinki"}

	if !Can(owner, VenueSetStatus, Target{VenueID: 7, VenueCity: "Helsinki"}) {
		t.Error("city owner must manage venues in own city")
	}
	if Can(owner, VenueSetStatus, Target{VenueID: 8, VenueCity: "Tampere"}) {
		t.Error("city owner must not manage venues in another city")
	}
	if !Can(owner, UsersInvite, Target{}) {
		t.Error("city owner must invite users")
	}
	if Can(owner, AuditView, Target{}) {
		t.Error("city owner must not view the audit log")
	}
}

func TestCanSuperAdmin(t *testing.T) {
	admin := Actor{ID: uuid.New(), Role: domain.RoleSuperAdmin}

	targets := []Target{
		{},
		{VenueID: 42, VenueCity: "Oulu"},
		{OwnerID: uuid.New(), VenueID: 1},
	}

	actions := []Action{
		VenueCreate, VenueUpdate, VenueSetStatus,
		BookingConfirm, BookingCancelAny, BookingListAll,
		UsersInvite, UsersManage, AuditView,
	}

	for _, target := range targets {
		for _, action := range actions {
			if !Can(admin, action, target) {
				t.Errorf("super admin denied %s on %+v", action, target)
			}
		}
	}
}

func TestCanUnknownRole(t *testing.T) {
	if Can(Actor{ID: uuid.New(), Role: "intern"}, BookingCreate, Target{}) {
		t.Error("unknown roles must have no capabilities")
	}
}
