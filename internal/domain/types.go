package domain

import (
	"time"

	"github.com/google/uuid"
)

type VenueStatus string

const (
	VenueActive      VenueStatus = "active"
	VenueInactive    VenueStatus = "inactive"
	VenueMaintenance VenueStatus = "maintenance"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Role string

const (
	RoleUser         Role = "user"
	RoleVenueManager Role = "venue_manager"
	RoleCityOwner    Role = "city_owner"
	RoleSuperAdmin   Role = "super_admin"
)

type Venue struct {
	ID          int64
	Name        string
	Type        string
	City        string
	Capacity    int
	PriceCents  int // per hour
	Description string
	Amenities   []string
	Status      VenueStatus
	OwnerID     *uuid.UUID
	// Minutes from midnight. Bookings must fit inside [OpensAtMin, ClosesAtMin).
	OpensAtMin  int
	ClosesAtMin int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Booking struct {
	ID               uuid.UUID
	VenueID          int64
	RequesterID      uuid.UUID
	Range            TimeRange
	Participants     int
	TotalPriceCents  int // frozen at creation
	Status           BookingStatus
	PaymentStatus    PaymentStatus
	LateCancellation bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Profile struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Role      Role
	Active    bool
	City      string // scope for city owners, empty otherwise
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
)

type Invitation struct {
	ID        int64
	Email     string
	FullName  string
	Role      Role
	InvitedBy uuid.UUID
	Status    InvitationStatus
	CreatedAt time.Time
}

type ActivityLogEntry struct {
	ID        int64
	UserID    uuid.UUID
	Action    string
	Details   []byte // jsonb raw
	CreatedAt time.Time
}

// VenuePatch carries optional updates to a venue; nil fields are left as-is.
type VenuePatch struct {
	Name        *string
	Type        *string
	City        *string
	Capacity    *int
	PriceCents  *int
	Description *string
	Amenities   []string
	OpensAtMin  *int
	ClosesAtMin *int
}

type VenueFilter struct {
	City      string
	Type      string
	Status    VenueStatus
	TextQuery string
}
