package bookings

import (
	"context"
	"errors"
	"testing"

	"turfbook/internal/notify"
	"turfbook/internal/store"
)

type fakeStore struct {
	nextID        int64
	createErr     error
	exclusiveErr  error
	created       []*store.Booking
	exclusiveUsed bool

	users map[int64]store.User
	venue *store.Venue

	slots []store.BookingSlot
}

func (f *fakeStore) CreateBooking(ctx context.Context, b *store.Booking) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	b.ID = f.nextID
	f.created = append(f.created, b)
	return f.nextID, nil
}

func (f *fakeStore) CreateBookingExclusive(ctx context.Context, b *store.Booking) (int64, error) {
	f.exclusiveUsed = true
	if f.exclusiveErr != nil {
		return 0, f.exclusiveErr
	}
	return f.CreateBooking(ctx, b)
}

func (f *fakeStore) BookingsForDate(ctx context.Context, venueID int64, date string) ([]store.BookingSlot, error) {
	return f.slots, nil
}

func (f *fakeStore) UserByID(ctx context.Context, id int64) (store.User, error) {
	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) VenueByID(ctx context.Context, id int64) (*store.Venue, error) {
	if f.venue == nil {
		return nil, store.ErrVenueNotFound
	}
	return f.venue, nil
}

type fakeDispatcher struct {
	sent    []notify.Message
	failFor map[notify.Role]error
}

func (f *fakeDispatcher) Send(ctx context.Context, msg notify.Message) error {
	if err := f.failFor[msg.Recipient]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func bookedStore() *fakeStore {
	return &fakeStore{
		users: map[int64]store.User{
			5: {ID: 5, Name: "Sam", Email: "sam@example.com"},
			7: {ID: 7, Name: "Olive", Email: "olive@example.com"},
		},
		venue: &store.Venue{ID: 3, OwnerID: 7, Name: "Venue A"},
	}
}

func validRequest() Request {
	return Request{
		UserID:          5,
		VenueID:         3,
		Date:            "2024-06-01",
		StartTime:       "18:00",
		EndTime:         "19:00",
		DurationMinutes: 60,
		Price:           1200,
	}
}

func TestBookSuccessNotifiesBothRecipients(t *testing.T) {
	st := bookedStore()
	d := &fakeDispatcher{}
	svc := New(st, d, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if conf.BookingID != 1 {
		t.Errorf("booking ID = %d", conf.BookingID)
	}
	if !conf.NotifiedBooker || !conf.NotifiedOwner {
		t.Errorf("expected both notifications sent: %+v", conf)
	}
	if len(d.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(d.sent))
	}
	if d.sent[0].Recipient != notify.RoleBooker || d.sent[0].Email != "sam@example.com" {
		t.Errorf("unexpected booker message: %+v", d.sent[0])
	}
	if d.sent[1].Recipient != notify.RoleOwner || d.sent[1].Email != "olive@example.com" {
		t.Errorf("unexpected owner message: %+v", d.sent[1])
	}
	if d.sent[0].VenueName != "Venue A" {
		t.Errorf("venue name not resolved from store: %+v", d.sent[0])
	}
}

func TestBookDoubleBookingAllowedByDefault(t *testing.T) {
	st := bookedStore()
	svc := New(st, &fakeDispatcher{}, PolicyAllow)

	first, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("first Book error: %v", err)
	}
	second, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("second Book error: %v", err)
	}
	if first.BookingID == second.BookingID {
		t.Errorf("expected distinct booking IDs, both %d", first.BookingID)
	}
	if st.exclusiveUsed {
		t.Error("allow policy must not use the exclusive create path")
	}
}

func TestBookRejectPolicySurfacesConflict(t *testing.T) {
	st := bookedStore()
	st.exclusiveErr = store.ErrSlotTaken
	svc := New(st, &fakeDispatcher{}, PolicyReject)

	_, err := svc.Book(context.Background(), validRequest())
	if !errors.Is(err, store.ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
	if !st.exclusiveUsed {
		t.Error("reject policy must use the exclusive create path")
	}
}

func TestBookNotificationFailureStillSucceeds(t *testing.T) {
	st := bookedStore()
	d := &fakeDispatcher{failFor: map[notify.Role]error{
		notify.RoleBooker: errors.New("smtp down"),
		notify.RoleOwner:  errors.New("smtp down"),
	}}
	svc := New(st, d, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if conf.BookingID == 0 {
		t.Error("booking must persist despite notification failures")
	}
	if conf.NotifiedBooker || conf.NotifiedOwner {
		t.Errorf("expected both notification flags false: %+v", conf)
	}
	if len(st.created) != 1 {
		t.Errorf("expected exactly one booking row, got %d", len(st.created))
	}
}

func TestBookWithNotificationsDisabled(t *testing.T) {
	st := bookedStore()
	svc := New(st, notify.Disabled{}, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if conf.BookingID == 0 {
		t.Fatal("expected a booking id")
	}
	// Dropped messages must not read as delivered.
	if conf.NotifiedBooker || conf.NotifiedOwner {
		t.Errorf("expected both notified flags false, got %+v", conf)
	}
}

func TestBookPartialNotificationFailure(t *testing.T) {
	st := bookedStore()
	d := &fakeDispatcher{failFor: map[notify.Role]error{
		notify.RoleOwner: errors.New("mailbox full"),
	}}
	svc := New(st, d, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if !conf.NotifiedBooker || conf.NotifiedOwner {
		t.Errorf("expected booker notified, owner not: %+v", conf)
	}
}

func TestBookMissingBookerIsPartialFailure(t *testing.T) {
	st := bookedStore()
	delete(st.users, 5)
	svc := New(st, &fakeDispatcher{}, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	// The booking row was committed before the lookup; the ID must be
	// reported so callers can reconcile.
	if conf.BookingID == 0 {
		t.Error("expected committed booking ID alongside the error")
	}
}

func TestBookMissingOwnerIsPartialFailure(t *testing.T) {
	st := bookedStore()
	delete(st.users, 7)
	svc := New(st, &fakeDispatcher{}, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if !errors.Is(err, ErrOwnerNotFound) {
		t.Errorf("expected ErrOwnerNotFound, got %v", err)
	}
	if conf.BookingID == 0 {
		t.Error("expected committed booking ID alongside the error")
	}
}

func TestBookStoreFailure(t *testing.T) {
	st := bookedStore()
	st.createErr = errors.New("connection refused")
	d := &fakeDispatcher{}
	svc := New(st, d, PolicyAllow)

	conf, err := svc.Book(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if conf.BookingID != 0 {
		t.Errorf("no booking ID expected on persistence failure, got %d", conf.BookingID)
	}
	if len(d.sent) != 0 {
		t.Errorf("no notifications expected, got %d", len(d.sent))
	}
}

func TestBookValidation(t *testing.T) {
	st := bookedStore()
	svc := New(st, &fakeDispatcher{}, PolicyAllow)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"missing user", func(r *Request) { r.UserID = 0 }},
		{"missing venue", func(r *Request) { r.VenueID = 0 }},
		{"bad date", func(r *Request) { r.Date = "01-06-2024" }},
		{"bad start", func(r *Request) { r.StartTime = "6pm" }},
		{"bad end", func(r *Request) { r.EndTime = "25:00" }},
		{"start after end", func(r *Request) { r.StartTime = "20:00"; r.EndTime = "19:00" }},
		{"zero duration", func(r *Request) { r.DurationMinutes = 0 }},
		{"negative price", func(r *Request) { r.Price = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, err := svc.Book(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if len(st.created) != 0 {
				t.Fatalf("validation failure must not write: %d rows", len(st.created))
			}
		})
	}
}

func TestSlotsValidation(t *testing.T) {
	svc := New(bookedStore(), &fakeDispatcher{}, PolicyAllow)

	if _, err := svc.Slots(context.Background(), 0, "2024-06-01"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing venue, got %v", err)
	}
	if _, err := svc.Slots(context.Background(), 3, "June 1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad date, got %v", err)
	}
}

func TestSlotsPassthrough(t *testing.T) {
	st := bookedStore()
	st.slots = []store.BookingSlot{{ID: 1, VenueID: 3, StartTime: "06:00", EndTime: "07:00"}}
	svc := New(st, &fakeDispatcher{}, PolicyAllow)

	got, err := svc.Slots(context.Background(), 3, "2024-06-01")
	if err != nil {
		t.Fatalf("Slots error: %v", err)
	}
	if len(got) != 1 || got[0].StartTime != "06:00" {
		t.Errorf("unexpected slots %+v", got)
	}
}
