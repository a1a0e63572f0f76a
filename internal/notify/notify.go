// Package notify delivers booking confirmation messages. Dispatch is
// best-effort: the booking workflow logs failures and never unwinds a
// committed booking over an undelivered message.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Role identifies which side of a booking a message addresses.
type Role string

const (
	// RoleBooker is the user who reserved the slot.
	RoleBooker Role = "booker"
	// RoleOwner is the user who listed the venue.
	RoleOwner Role = "owner"
)

// Message carries everything needed to render one confirmation email.
type Message struct {
	Recipient Role
	Email     string
	Name      string
	VenueName string
	Date      string
	StartTime string
	EndTime   string
}

// Dispatcher attempts delivery of a single message.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// ErrDisabled reports that no mail provider is configured.
var ErrDisabled = errors.New("notifications disabled")

// Disabled is a Dispatcher used when no mail provider is configured. It logs
// each message instead of delivering it.
type Disabled struct{}

// Send records the dropped message at debug level and returns ErrDisabled,
// so confirmations never claim a recipient was notified.
func (Disabled) Send(_ context.Context, msg Message) error {
	log.Debug().
		Str("recipient", string(msg.Recipient)).
		Str("email", msg.Email).
		Str("venue", msg.VenueName).
		Msg("notifications disabled, message dropped")
	return ErrDisabled
}

// subject and body render the two booking templates.

func subject(msg Message) string {
	if msg.Recipient == RoleOwner {
		return "New Turf Booking - Notification"
	}
	return "Booking Confirmation - Turf Booking"
}

func body(msg Message) string {
	if msg.Recipient == RoleOwner {
		return fmt.Sprintf(
			"Hi %s,\n\nYour turf %s has been booked.\n\nDate: %s\nTime: %s - %s\n\nCheck your dashboard for details.\n",
			msg.Name, msg.VenueName, msg.Date, msg.StartTime, msg.EndTime)
	}
	return fmt.Sprintf(
		"Hi %s,\n\nYour booking for %s is confirmed.\n\nDate: %s\nTime: %s - %s\n\nEnjoy your game!\n",
		msg.Name, msg.VenueName, msg.Date, msg.StartTime, msg.EndTime)
}
