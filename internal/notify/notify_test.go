package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDisabledSendReportsUndelivered(t *testing.T) {
	err := Disabled{}.Send(context.Background(), Message{Recipient: RoleBooker, Email: "sam@example.com"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Send error = %v, want ErrDisabled", err)
	}
}

func TestTemplatesPerRecipient(t *testing.T) {
	msg := Message{
		Name:      "Sam",
		VenueName: "Venue A",
		Date:      "2024-06-01",
		StartTime: "18:00",
		EndTime:   "19:00",
	}

	msg.Recipient = RoleBooker
	if got := subject(msg); !strings.Contains(got, "Confirmation") {
		t.Errorf("booker subject = %q", got)
	}
	if got := body(msg); !strings.Contains(got, "Your booking for Venue A is confirmed") {
		t.Errorf("booker body missing confirmation line: %q", got)
	}

	msg.Recipient = RoleOwner
	if got := subject(msg); !strings.Contains(got, "New Turf Booking") {
		t.Errorf("owner subject = %q", got)
	}
	if got := body(msg); !strings.Contains(got, "has been booked") {
		t.Errorf("owner body missing alert line: %q", got)
	}

	for _, r := range []Role{RoleBooker, RoleOwner} {
		msg.Recipient = r
		b := body(msg)
		for _, want := range []string{"Sam", "2024-06-01", "18:00", "19:00"} {
			if !strings.Contains(b, want) {
				t.Errorf("%s body missing %q: %q", r, want, b)
			}
		}
	}
}
