package httpgin

import (
	"encoding/json"
	"time"

	"github.com/venuebook/venuebook/internal/domain"
)

type CreateBookingRequest struct {
	StartsAt     string `json:"starts_at" binding:"required"`
	EndsAt       string `json:"ends_at" binding:"required"`
	Participants int    `json:"participants" binding:"required,gt=0"`
}

type SetPaymentRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=unpaid paid refunded"`
}

type CreateVenueRequest struct {
	Name        string   `json:"name" binding:"required"`
	Type        string   `json:"type" binding:"required"`
	City        string   `json:"city" binding:"required"`
	Capacity    int      `json:"capacity" binding:"required,gt=0"`
	PriceCents  int      `json:"price_cents" binding:"gte=0"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	OpensAtMin  int      `json:"opens_at_min" binding:"gte=0,lt=1440"`
	ClosesAtMin int      `json:"closes_at_min" binding:"gt=0,lte=1440"`
}

type UpdateVenueRequest struct {
	Name        *string  `json:"name"`
	Type        *string  `json:"type"`
	City        *string  `json:"city"`
	Capacity    *int     `json:"capacity"`
	PriceCents  *int     `json:"price_cents"`
	Description *string  `json:"description"`
	Amenities   []string `json:"amenities"`
	OpensAtMin  *int     `json:"opens_at_min"`
	ClosesAtMin *int     `json:"closes_at_min"`
}

type SetVenueStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive maintenance"`
}

type InviteRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=user venue_manager city_owner super_admin"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user venue_manager city_owner super_admin"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type VenueResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	City        string   `json:"city"`
	Capacity    int      `json:"capacity"`
	PriceCents  int      `json:"price_cents"`
	Description string   `json:"description,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Status      string   `json:"status"`
	OpensAtMin  int      `json:"opens_at_min"`
	ClosesAtMin int      `json:"closes_at_min"`
}

type BookingResponse struct {
	ID               string    `json:"id"`
	VenueID          int64     `json:"venue_id"`
	RequesterID      string    `json:"requester_id"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	Participants     int       `json:"participants"`
	TotalPriceCents  int       `json:"total_price_cents"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	LateCancellation bool      `json:"late_cancellation"`
	CreatedAt        time.Time `json:"created_at"`
}

type SlotResponse struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type AvailabilityResponse struct {
	Free bool `json:"free"`
}

type ProfileResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
	City     string `json:"city,omitempty"`
}

type InvitationResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityResponse struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

func toVenueResponse(v *domain.Venue) VenueResponse {
	return VenueResponse{
		ID:          v.ID,
		Name:        v.Name,
		Type:        v.Type,
		City:        v.City,
		Capacity:    v.Capacity,
		PriceCents:  v.PriceCents,
		Description: v.Description,
		Amenities:   v.Amenities,
		Status:      string(v.Status),
		OpensAtMin:  v.OpensAtMin,
		ClosesAtMin: v.ClosesAtMin,
	}
}

func toVenueResponses(vs []domain.Venue) []VenueResponse {
	out := make([]VenueResponse, 0, len(vs))
	for i := range vs {
		out = append(out, toVenueResponse(&vs[i]))
	}
	return out
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID.String(),
		VenueID:          b.VenueID,
		RequesterID:      b.RequesterID.String(),
		StartsAt:         b.Range.Start,
		EndsAt:           b.Range.End,
		Participants:     b.Participants,
		TotalPriceCents:  b.TotalPriceCents,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		LateCancellation: b.LateCancellation,
		CreatedAt:        b.CreatedAt,
	}
}

func toBookingResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for i := range bs {
		out = append(out, toBookingResponse(&bs[i]))
	}
	return out
}

func toSlotResponses(slots []domain.TimeRange) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{StartsAt: s.Start, EndsAt: s.End})
	}
	return out
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:       p.ID.String(),
		Email:    p.Email,
		FullName: p.FullName,
		Role:     string(p.Role),
		Active:   p.Active,
		City:     p.City,
	}
}

func toProfileResponses(ps []domain.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(ps))
	for i := range ps {
		out = append(out, toProfileResponse(&ps[i]))
	}
	return out
}

func toInvitationResponse(inv *domain.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		FullName:  inv.FullName,
		Role:      string(inv.Role),
		Status:    string(inv.Status),
		CreatedAt: inv.CreatedAt,
	}
}

func toInvitationResponses(invs []domain.Invitation) []InvitationResponse {
	out := make([]InvitationResponse, 0, len(invs))
	for i := range invs {
		out = append(out, toInvitationResponse(&invs[i]))
	}
	return out
}

func toActivityResponses(entries []domain.ActivityLogEntry) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityResponse{
			ID:        e.ID,
			UserID:    e.UserID.String(),
			Action:    e.Action,
			Details:   json.RawMessage(e.Details),
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
