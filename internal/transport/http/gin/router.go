package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/venuebook/venuebook/internal/auth"
	"github.com/venuebook/venuebook/internal/domain"
	"github.com/venuebook/venuebook/internal/repository"
	redisrepo "github.com/venuebook/venuebook/internal/repository/redis"
	"github.com/venuebook/venuebook/internal/service"
	"github.com/venuebook/venuebook/internal/service/accounts"
	"github.com/venuebook/venuebook/internal/service/availability"
	"github.com/venuebook/venuebook/internal/service/booking"
	"github.com/venuebook/venuebook/internal/service/catalog"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	authMgr *auth.Manager,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS(), MetricsMiddleware())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public catalog and availability
	r.GET("/venues", handleListVenues(svcs))
	r.GET("/venues/:id", handleGetVenue(svcs))
	r.GET("/venues/:id/slots", handleListSlots(svcs))
	r.GET("/venues/:id/availability", handleCheckAvailability(svcs))

	authed := r.Group("", AuthMiddleware(authMgr))
	{
		authed.POST("/venues/:id/bookings", handleCreateBooking(svcs, idem))
		authed.GET("/venues/:id/bookings", handleListVenueBookings(svcs))
		authed.PATCH("/venues/:id", handleUpdateVenue(svcs))
		authed.PUT("/venues/:id/status", handleSetVenueStatus(svcs))

		authed.GET("/me/bookings", handleListOwnBookings(svcs))

		authed.POST("/invitations/:id/accept", handleAcceptInvitation(svcs))

		authed.GET("/bookings/:id", handleGetBooking(svcs))
		authed.POST("/bookings/:id/cancel", handleTransition(svcs, domain.BookingCancelled))
		authed.POST("/bookings/:id/confirm", handleTransition(svcs, domain.BookingConfirmed))
		authed.POST("/bookings/:id/complete", handleTransition(svcs, domain.BookingCompleted))
	}

	admin := r.Group("/admin", AuthMiddleware(authMgr))
	{
		admin.POST("/venues", handleCreateVenue(svcs))
		admin.GET("/bookings", handleListAllBookings(svcs))
		admin.POST("/bookings/:id/payment", handleSetPayment(svcs))

		admin.GET("/users", handleListProfiles(svcs))
		admin.GET("/users/:id", handleGetProfile(svcs))
		admin.DELETE("/users/:id", handleDeleteProfile(svcs))
		admin.PUT("/users/:id/role", handleSetRole(svcs))
		admin.PUT("/users/:id/active", handleSetActive(svcs))

		admin.POST("/invitations", handleInvite(svcs))
		admin.GET("/invitations", handleListInvitations(svcs))
		admin.DELETE("/invitations/:id", handleCancelInvitation(svcs))

		admin.GET("/activity", handleListActivity(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List venues
// @Param    city    query  string  false  "city filter"
// @Param    type    query  string  false  "venue type filter"
// @Param    status  query  string  false  "status filter"
// @Param    q       query  string  false  "text search over name and description"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  VenueResponse
// @Router   /venues [get]
func handleListVenues(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := domain.VenueFilter{
			City:      c.Query("city"),
			Type:      c.Query("type"),
			Status:    domain.VenueStatus(c.Query("status")),
			TextQuery: c.Query("q"),
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		venues, err := svcs.Catalog.List(c.Request.Context(), filter, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toVenueResponses(venues), "public, max-age=15", true)
	}
}

// @Summary  Get venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  VenueResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := svcs.Catalog.Get(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toVenueResponse(v), "public, max-age=60", true)
	}
}

// @Summary  List free slots for a day
// @Param    id   path   int     true  "Venue ID"
// @Param    day  query  string  true  "Day (YYYY-MM-DD)"
// @Success  200  {array}  SlotResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id}/slots [get]
func handleListSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		day, err := time.Parse("2006-01-02", c.Query("day"))
		if err != nil {
			badRequest(c, "invalid day (YYYY-MM-DD)")
			return
		}
		slots, err := svcs.Availability.ListFreeSlots(c.Request.Context(), venueID, day)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, toSlotResponses(slots), "public, max-age=15", true)
	}
}

// @Summary  Check slot availability
// @Param    id         path   int     true  "Venue ID"
// @Param    starts_at  query  string  true  "Range start (RFC3339)"
// @Param    ends_at    query  string  true  "Range end (RFC3339)"
// @Success  200  {object}  AvailabilityResponse
// @Router   /venues/{id}/availability [get]
func handleCheckAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		starts, err := parseRFC3339(c.Query("starts_at"))
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(c.Query("ends_at"))
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}
		free, err := svcs.Availability.IsFree(
			c.Request.Context(),
			venueID,
			domain.TimeRange{Start: starts, End: ends},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, AvailabilityResponse{Free: free})
	}
}

// @Summary  Create booking (idempotent)
// @Param    id   path  int                   true  "Venue ID"
// @Param    req  body  CreateBookingRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  BookingResponse
// @Failure  409  {object}  ErrorResponse  "slot already booked"
// @Failure  422  {object}  ErrorResponse  "invalid range or capacity"
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /venues/{id}/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}
		ends, err := parseRFC3339(req.EndsAt)
		if err != nil {
			badRequest(c, "invalid ends_at (RFC3339)")
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(venueID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		b, err := svcs.Booking.Create(
			c.Request.Context(),
			actorFrom(c),
			venueID,
			domain.TimeRange{Start: starts, End: ends},
			req.Participants,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(b)

		if idemStorageKey != "" && idem != nil {
			raw, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(raw))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List bookings for a venue
// @Param    id      path   int  true  "Venue ID"
// @Param    limit   query  int  false "page size"
// @Param    offset  query  int  false "offset"
// @Success  200  {array}  BookingResponse
// @Router   /venues/{id}/bookings [get]
func handleListVenueBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		bookings, err := svcs.Booking.ListForVenue(c.Request.Context(), actorFrom(c), venueID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bookings))
	}
}

// @Summary  List own bookings
// @Param    limit   query  int  false "page size"
// @Param    offset  query  int  false "offset"
// @Success  200  {array}  BookingResponse
// @Router   /me/bookings [get]
func handleListOwnBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c)
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		bookings, err := svcs.Booking.ListForUser(c.Request.Context(), actor, actor.ID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bookings))
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  BookingResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Get(c.Request.Context(), actorFrom(c), bookingID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Transition booking status
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  BookingResponse
// @Failure  409  {object}  ErrorResponse  "illegal transition"
// @Router   /bookings/{id}/cancel [post]
func handleTransition(svcs *service.Services, target domain.BookingStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Booking.Transition(c.Request.Context(), actorFrom(c), bookingID, target)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  Record payment status
// @Param    id   path  string             true  "Booking ID (uuid)"
// @Param    req  body  SetPaymentRequest  true  "payload"
// @Success  200  {object}  BookingResponse
// @Router   /admin/bookings/{id}/payment [post]
func handleSetPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		b, err := svcs.Booking.SetPaymentStatus(
			c.Request.Context(),
			actorFrom(c),
			bookingID,
			domain.PaymentStatus(req.PaymentStatus),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b))
	}
}

// @Summary  List all bookings
// @Param    limit   query  int  false "page size"
// @Param    offset  query  int  false "offset"
// @Success  200  {array}  BookingResponse
// @Router   /admin/bookings [get]
func handleListAllBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		bookings, err := svcs.Booking.ListAll(c.Request.Context(), actorFrom(c), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponses(bookings))
	}
}

// @Summary  Create venue
// @Param    req  body  CreateVenueRequest  true  "payload"
// @Success  201  {object}  VenueResponse
// @Router   /admin/venues [post]
func handleCreateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Catalog.Create(c.Request.Context(), actorFrom(c), domain.Venue{
			Name:        req.Name,
			Type:        req.Type,
			City:        req.City,
			Capacity:    req.Capacity,
			PriceCents:  req.PriceCents,
			Description: req.Description,
			Amenities:   req.Amenities,
			OpensAtMin:  req.OpensAtMin,
			ClosesAtMin: req.ClosesAtMin,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toVenueResponse(v))
	}
}

// @Summary  Update venue
// @Param    id   path  int                 true  "Venue ID"
// @Param    req  body  UpdateVenueRequest  true  "payload"
// @Success  200  {object}  VenueResponse
// @Router   /venues/{id} [patch]
func handleUpdateVenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Catalog.Update(c.Request.Context(), actorFrom(c), venueID, domain.VenuePatch{
			Name:        req.Name,
			Type:        req.Type,
			City:        req.City,
			Capacity:    req.Capacity,
			PriceCents:  req.PriceCents,
			Description: req.Description,
			Amenities:   req.Amenities,
			OpensAtMin:  req.OpensAtMin,
			ClosesAtMin: req.ClosesAtMin,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toVenueResponse(v))
	}
}

// @Summary  Set venue status
// @Param    id   path  int                    true  "Venue ID"
// @Param    req  body  SetVenueStatusRequest  true  "payload"
// @Success  204
// @Router   /venues/{id}/status [put]
func handleSetVenueStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req SetVenueStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := svcs.Catalog.SetStatus(
			c.Request.Context(),
			actorFrom(c),
			venueID,
			domain.VenueStatus(req.Status),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List profiles
// @Success  200  {array}  ProfileResponse
// @Router   /admin/users [get]
func handleListProfiles(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		profiles, err := svcs.Accounts.ListProfiles(c.Request.Context(), actorFrom(c), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponses(profiles))
	}
}

// @Summary  Get profile
// @Param    id  path  string  true  "User ID (uuid)"
// @Success  200  {object}  ProfileResponse
// @Router   /admin/users/{id} [get]
func handleGetProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Accounts.GetProfile(c.Request.Context(), actorFrom(c), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

// @Summary  Set profile role
// @Param    id   path  string          true  "User ID (uuid)"
// @Param    req  body  SetRoleRequest  true  "payload"
// @Success  200  {object}  ProfileResponse
// @Router   /admin/users/{id}/role [put]
func handleSetRole(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svcs.Accounts.SetRole(c.Request.Context(), actorFrom(c), userID, domain.Role(req.Role))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

// @Summary  Suspend or activate profile
// @Param    id   path  string            true  "User ID (uuid)"
// @Param    req  body  SetActiveRequest  true  "payload"
// @Success  200  {object}  ProfileResponse
// @Router   /admin/users/{id}/active [put]
func handleSetActive(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svcs.Accounts.SetActive(c.Request.Context(), actorFrom(c), userID, *req.Active)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

// @Summary  Accept invitation
// @Param    id  path  int  true  "Invitation ID"
// @Success  201  {object}  ProfileResponse
// @Failure  409  {object}  ErrorResponse  "invitation no longer pending"
// @Router   /invitations/{id}/accept [post]
func handleAcceptInvitation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		invID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Accounts.AcceptInvitation(c.Request.Context(), actorFrom(c).ID, invID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toProfileResponse(p))
	}
}

// @Summary  Delete profile
// @Param    id  path  string  true  "User ID (uuid)"
// @Success  204
// @Router   /admin/users/{id} [delete]
func handleDeleteProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Accounts.DeleteProfile(c.Request.Context(), actorFrom(c), userID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Invite user
// @Param    req  body  InviteRequest  true  "payload"
// @Success  201  {object}  InvitationResponse
// @Failure  409  {object}  ErrorResponse  "pending invitation exists"
// @Router   /admin/invitations [post]
func handleInvite(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InviteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		inv, err := svcs.Accounts.Invite(
			c.Request.Context(),
			actorFrom(c),
			req.Email,
			req.FullName,
			domain.Role(req.Role),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toInvitationResponse(inv))
	}
}

// @Summary  List pending invitations
// @Success  200  {array}  InvitationResponse
// @Router   /admin/invitations [get]
func handleListInvitations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		invs, err := svcs.Accounts.ListInvitations(c.Request.Context(), actorFrom(c), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toInvitationResponses(invs))
	}
}

// @Summary  Cancel invitation
// @Param    id  path  int  true  "Invitation ID"
// @Success  204
// @Router   /admin/invitations/{id} [delete]
func handleCancelInvitation(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		invID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := svcs.Accounts.CancelInvitation(c.Request.Context(), actorFrom(c), invID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List audit trail
// @Success  200  {array}  ActivityResponse
// @Router   /admin/activity [get]
func handleListActivity(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseIntDefault(c.Query("limit"), 100)
		offset := parseIntDefault(c.Query("offset"), 0)

		entries, err := svcs.Accounts.ListActivity(c.Request.Context(), actorFrom(c), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toActivityResponses(entries))
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slot already booked"})
	case errors.Is(err, booking.ErrIllegalTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "illegal status transition"})
	case errors.Is(err, booking.ErrVenueUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "venue not accepting bookings"})
	case errors.Is(err, booking.ErrCapacityExceeded):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "participants exceed venue capacity"})
	case errors.Is(err, booking.ErrInvalidRange):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid time range"})
	case errors.Is(err, booking.ErrOutsideHours):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "range outside venue opening hours"})
	case errors.Is(err, booking.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
	case errors.Is(err, booking.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})

	// catalog service
	case errors.Is(err, catalog.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, catalog.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid venue attributes"})
	case errors.Is(err, catalog.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})

	// availability service
	case errors.Is(err, availability.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, availability.ErrInvalidRange):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid time range"})

	// accounts service
	case errors.Is(err, accounts.ErrProfileExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "profile already exists"})
	case errors.Is(err, accounts.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
	case errors.Is(err, accounts.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invitation not found"})
	case errors.Is(err, accounts.ErrInvitationClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invitation no longer pending"})
	case errors.Is(err, accounts.ErrInvitationExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "pending invitation exists"})
	case errors.Is(err, accounts.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid input"})
	case errors.Is(err, accounts.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})

	// storage
	case errors.Is(err, repository.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
