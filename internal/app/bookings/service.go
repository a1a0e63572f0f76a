// Package bookings implements the booking workflow: slot validation, the
// durable booking write, recipient resolution and best-effort confirmation
// dispatch.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"turfbook/internal/notify"
	"turfbook/internal/store"
)

var (
	// ErrInvalidInput flags a booking request rejected before any write.
	ErrInvalidInput = errors.New("invalid booking input")
	// ErrOwnerNotFound indicates the venue owner could not be resolved after
	// the booking was already committed.
	ErrOwnerNotFound = errors.New("venue owner not found")
)

// ConflictPolicy selects how the workflow treats an already-occupied slot.
type ConflictPolicy string

const (
	// PolicyAllow reproduces the legacy behavior: overlapping bookings for
	// the same venue, date and time all succeed.
	PolicyAllow ConflictPolicy = "allow"
	// PolicyReject refuses a booking whose interval overlaps an existing one.
	PolicyReject ConflictPolicy = "reject"
)

// ParsePolicy maps a config string to a ConflictPolicy, defaulting to allow.
func ParsePolicy(s string) ConflictPolicy {
	if s == string(PolicyReject) {
		return PolicyReject
	}
	return PolicyAllow
}

// Store describes the persistence operations required by the booking service.
type Store interface {
	CreateBooking(ctx context.Context, b *store.Booking) (int64, error)
	CreateBookingExclusive(ctx context.Context, b *store.Booking) (int64, error)
	BookingsForDate(ctx context.Context, venueID int64, date string) ([]store.BookingSlot, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
	VenueByID(ctx context.Context, id int64) (*store.Venue, error)
}

// Request is a validated booking submission.
type Request struct {
	UserID          int64
	VenueID         int64
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Price           float64
}

// Confirmation reports the outcome of a booking. BookingID is set whenever a
// row was committed, even if later notification steps failed; the Notified
// flags let callers distinguish full from partial success.
type Confirmation struct {
	BookingID      int64 `json:"bookingId"`
	NotifiedBooker bool  `json:"notifiedBooker"`
	NotifiedOwner  bool  `json:"notifiedOwner"`
}

// Service exposes booking workflows.
type Service interface {
	Book(ctx context.Context, req Request) (Confirmation, error)
	Slots(ctx context.Context, venueID int64, date string) ([]store.BookingSlot, error)
}

type service struct {
	store      Store
	dispatcher notify.Dispatcher
	policy     ConflictPolicy
}

// New wires a Service backed by the provided Store and Dispatcher.
func New(st Store, dispatcher notify.Dispatcher, policy ConflictPolicy) Service {
	if policy == "" {
		policy = PolicyAllow
	}
	return &service{store: st, dispatcher: dispatcher, policy: policy}
}

// Book validates the request, writes the booking, then resolves both
// recipients and dispatches their confirmations. The booking is durable once
// the store call returns; everything after that is best-effort and reported
// through the Confirmation rather than failing the call. The one exception
// is recipient resolution: a missing user or owner is surfaced as an error
// alongside the committed booking ID so callers can reconcile.
func (s *service) Book(ctx context.Context, req Request) (Confirmation, error) {
	if err := validateRequest(req); err != nil {
		return Confirmation{}, err
	}

	b := &store.Booking{
		UserID:          req.UserID,
		VenueID:         req.VenueID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	}

	var (
		id  int64
		err error
	)
	if s.policy == PolicyReject {
		id, err = s.store.CreateBookingExclusive(ctx, b)
	} else {
		id, err = s.store.CreateBooking(ctx, b)
	}
	if err != nil {
		return Confirmation{}, fmt.Errorf("create booking: %w", err)
	}

	conf := Confirmation{BookingID: id}

	venue, err := s.store.VenueByID(ctx, req.VenueID)
	if err != nil {
		return conf, fmt.Errorf("resolve venue for booking %d: %w", id, err)
	}

	booker, err := s.store.UserByID(ctx, req.UserID)
	if err != nil {
		return conf, fmt.Errorf("resolve booker for booking %d: %w", id, err)
	}

	owner, err := s.store.UserByID(ctx, venue.OwnerID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return conf, fmt.Errorf("booking %d: %w", id, ErrOwnerNotFound)
		}
		return conf, fmt.Errorf("resolve owner for booking %d: %w", id, err)
	}

	conf.NotifiedBooker = s.dispatch(ctx, notify.Message{
		Recipient: notify.RoleBooker,
		Email:     booker.Email,
		Name:      booker.Name,
		VenueName: venue.Name,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	conf.NotifiedOwner = s.dispatch(ctx, notify.Message{
		Recipient: notify.RoleOwner,
		Email:     owner.Email,
		Name:      owner.Name,
		VenueName: venue.Name,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})

	return conf, nil
}

// Slots lists the occupied intervals for a venue on a date.
func (s *service) Slots(ctx context.Context, venueID int64, date string) ([]store.BookingSlot, error) {
	if venueID <= 0 {
		return nil, fmt.Errorf("%w: venue id is required", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return s.store.BookingsForDate(ctx, venueID, date)
}

// dispatch attempts one delivery and reports whether it succeeded. Failures
// are logged here and never propagated.
func (s *service) dispatch(ctx context.Context, msg notify.Message) bool {
	if err := s.dispatcher.Send(ctx, msg); err != nil {
		// A disabled dispatcher already logged the drop at debug level.
		if !errors.Is(err, notify.ErrDisabled) {
			log.Error().
				Err(err).
				Str("recipient", string(msg.Recipient)).
				Str("email", msg.Email).
				Msg("booking notification failed")
		}
		return false
	}
	return true
}

func validateRequest(req Request) error {
	if req.UserID <= 0 || req.VenueID <= 0 {
		return fmt.Errorf("%w: user and venue ids are required", ErrInvalidInput)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time must be HH:MM", ErrInvalidInput)
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end time must be HH:MM", ErrInvalidInput)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start time must be before end time", ErrInvalidInput)
	}
	if req.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidInput)
	}
	return nil
}
