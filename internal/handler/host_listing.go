package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/engine"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/geo"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/geocode"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/model"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/queue"
	"github.com/cakany1/neighbors-kitchen-app-sub000/internal/repository"
	queue_publisher "github.com/cakany1/neighbors-kitchen-app-sub000/internal/service"
)

// HostListingHandler serves the host-side listing endpoints. Hosts see
// their own listings unsanitized; everything that leaves on a public
// path goes through the sanitized views in public_browse.go instead.
type HostListingHandler struct {
	Engine   *engine.Engine
	Listings *repository.ListingRepo
	BookingRepo *repository.BookingRepo
	Geocoder geocode.Geocoder
}

func NewHostListingHandler(e *engine.Engine, l *repository.ListingRepo, b *repository.BookingRepo, g geocode.Geocoder) *HostListingHandler {
	return &HostListingHandler{Engine: e, Listings: l, BookingRepo: b, Geocoder: g}
}

type createListingReq struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	PriceCents        uint32 `json:"price_cents"`
	Street            string `json:"street"`
	City              string `json:"city"`
	PostalCode        string `json:"postal_code"`
	Capacity          uint32 `json:"capacity"`
	ScheduledAt       string `json:"scheduled_at"`        // RFC3339
	PickupWindowStart string `json:"pickup_window_start"` // RFC3339
	PickupWindowEnd   string `json:"pickup_window_end"`   // RFC3339
}

// updateListingReq carries only the fields a host may change inside the
// edit window. Pointer fields distinguish "absent" from zero values.
type updateListingReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *uint32 `json:"price_cents"`
	Street      *string `json:"street"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
}

// hostListingView is the owner's view of a listing, exact address
// included.
type hostListingView struct {
	ID                uint64     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	PriceCents        uint32     `json:"price_cents"`
	Street            string     `json:"street"`
	City              string     `json:"city"`
	PostalCode        string     `json:"postal_code"`
	Neighborhood      string     `json:"neighborhood"`
	Lat               float64    `json:"lat"`
	Lon               float64    `json:"lon"`
	PublicLat         float64    `json:"public_lat"`
	PublicLon         float64    `json:"public_lon"`
	CapacityTotal     uint32     `json:"capacity_total"`
	Remaining         uint32     `json:"remaining"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	PickupWindowStart time.Time  `json:"pickup_window_start"`
	PickupWindowEnd   time.Time  `json:"pickup_window_end"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toHostView(l *model.Listing) hostListingView {
	return hostListingView{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		PriceCents:        l.PriceCents,
		Street:            l.Street,
		City:              l.City,
		PostalCode:        l.PostalCode,
		Neighborhood:      l.Neighborhood,
		Lat:               l.RealLat,
		Lon:               l.RealLon,
		PublicLat:         l.PublicLat,
		PublicLon:         l.PublicLon,
		CapacityTotal:     l.CapacityTotal,
		Remaining:         l.Remaining(),
		ScheduledAt:       l.ScheduledAt,
		PickupWindowStart: l.PickupWindowStart,
		PickupWindowEnd:   l.PickupWindowEnd,
		ClosedAt:          l.ClosedAt,
		CreatedAt:         l.CreatedAt,
	}
}

// Create publishes a new listing. The address is resolved once through
// the geocoder; the identity hash and the fuzzed public pin are derived
// here so every read path serves precomputed values and never touches
// the real coordinates.
func (h *HostListingHandler) Create(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Street = strings.TrimSpace(req.Street)
	req.City = strings.TrimSpace(req.City)
	req.PostalCode = strings.TrimSpace(req.PostalCode)
	if req.Title == "" || req.Street == "" || req.City == "" || req.PostalCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and full address required"})
	}
	if req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	scheduledAt, err1 := time.Parse(time.RFC3339, req.ScheduledAt)
	winStart, err2 := time.Parse(time.RFC3339, req.PickupWindowStart)
	winEnd, err3 := time.Parse(time.RFC3339, req.PickupWindowEnd)
	if err1 != nil || err2 != nil || err3 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "timestamps must be RFC3339"})
	}
	if !winStart.Before(winEnd) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pickup window start must precede end"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	loc, err := h.Geocoder.Geocode(ctx, req.Street, req.City, req.PostalCode)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "address could not be resolved"})
	}
	identity := geo.Identify(req.Street, req.City, req.PostalCode)
	publicLat, publicLon := geo.Fuzz(loc.Lat, loc.Lon, identity)

	l := &model.Listing{
		HostID:              hostID,
		Title:               req.Title,
		Description:         req.Description,
		PriceCents:          req.PriceCents,
		Street:              req.Street,
		City:                req.City,
		PostalCode:          req.PostalCode,
		Neighborhood:        loc.Neighborhood,
		RealLat:             loc.Lat,
		RealLon:             loc.Lon,
		PublicLat:           publicLat,
		PublicLon:           publicLon,
		AddressIdentityHash: identity,
		CapacityTotal:       req.Capacity,
		ScheduledAt:         scheduledAt.UTC(),
		PickupWindowStart:   winStart.UTC(),
		PickupWindowEnd:     winEnd.UTC(),
	}
	if err := h.Listings.Create(ctx, l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create listing failed"})
	}

	publishAudit(ctx, queue.AuditEvent{
		ActorID:   hostID,
		Action:    model.AuditListingCreated,
		TargetID:  l.ID,
		ListingID: l.ID,
	})
	return c.JSON(http.StatusCreated, toHostView(l))
}

// Update edits a listing inside the post-publish edit window. When any
// address field changes, the identity hash and the public pin are
// re-derived so the fuzzed coordinate keeps tracking the address.
func (h *HostListingHandler) Update(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	edited, err := h.Engine.EditListing(ctx, id, hostID, func(l *model.Listing) error {
		if req.Title != nil {
			l.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			l.Description = *req.Description
		}
		if req.PriceCents != nil {
			l.PriceCents = *req.PriceCents
		}
		addressChanged := false
		if req.Street != nil && strings.TrimSpace(*req.Street) != l.Street {
			l.Street = strings.TrimSpace(*req.Street)
			addressChanged = true
		}
		if req.City != nil && strings.TrimSpace(*req.City) != l.City {
			l.City = strings.TrimSpace(*req.City)
			addressChanged = true
		}
		if req.PostalCode != nil && strings.TrimSpace(*req.PostalCode) != l.PostalCode {
			l.PostalCode = strings.TrimSpace(*req.PostalCode)
			addressChanged = true
		}
		if addressChanged {
			loc, gerr := h.Geocoder.Geocode(ctx, l.Street, l.City, l.PostalCode)
			if gerr != nil {
				return gerr
			}
			l.RealLat, l.RealLon = loc.Lat, loc.Lon
			l.Neighborhood = loc.Neighborhood
			l.AddressIdentityHash = geo.Identify(l.Street, l.City, l.PostalCode)
			l.PublicLat, l.PublicLon = geo.Fuzz(l.RealLat, l.RealLon, l.AddressIdentityHash)
		}
		return nil
	})
	if err != nil {
		return engineError(c, err)
	}

	publishAudit(ctx, queue.AuditEvent{
		ActorID:   hostID,
		Action:    model.AuditListingEdited,
		TargetID:  id,
		ListingID: id,
	})
	return c.JSON(http.StatusOK, toHostView(edited))
}

// Close stops a listing from taking further reservations. Existing
// bookings keep their state.
func (h *HostListingHandler) Close(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Engine.CloseListing(ctx, id, hostID); err != nil {
		return engineError(c, err)
	}
	publishAudit(ctx, queue.AuditEvent{
		ActorID:   hostID,
		Action:    model.AuditListingClosed,
		TargetID:  id,
		ListingID: id,
	})
	return c.NoContent(http.StatusNoContent)
}

// Mine lists the authenticated host's own listings.
func (h *HostListingHandler) Mine(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	listings, err := h.Listings.ListByHost(ctx, hostID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]hostListingView, 0, len(listings))
	for i := range listings {
		out = append(out, toHostView(&listings[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Bookings lists all bookings on one of the host's listings.
func (h *HostListingHandler) Bookings(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	bookings, err := h.BookingRepo.ListByListingForHost(ctx, id, hostID)
	if err != nil {
		if err == repository.ErrForbidden {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// publishAudit fires an audit event to the broker after a successful
// mutation; broker failures are logged by the publisher and never fail
// the request, the in-database audit row is the source of truth.
func publishAudit(ctx context.Context, ev queue.AuditEvent) {
	if ev.At == "" {
		ev.At = time.Now().UTC().Format(time.RFC3339)
	}
	_ = queue_publisher.PublishAuditEvent(ctx, ev)
}
