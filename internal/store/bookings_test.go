package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const insertBookingSQL = `
		INSERT INTO bookings (user_id, venue_id, booking_date, start_time, end_time, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

func testBooking() *Booking {
	return &Booking{
		UserID:          5,
		VenueID:         3,
		Date:            "2024-06-01",
		StartTime:       "18:00",
		EndTime:         "19:00",
		DurationMinutes: 60,
		Price:           1200,
	}
}

func TestCreateBookingReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	b := testBooking()

	mock.ExpectQuery(regexp.QuoteMeta(insertBookingSQL)).
		WithArgs(int64(5), int64(3), "2024-06-01", "18:00", "19:00", 60, 1200.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

	id, err := s.CreateBooking(context.Background(), b)
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if id != 21 || b.ID != 21 {
		t.Errorf("expected booking ID 21, got %d (struct %d)", id, b.ID)
	}
}

func TestCreateBookingAllowsIdenticalSlots(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	// Legacy semantics: two identical slots both insert, yielding distinct IDs.
	mock.ExpectQuery(regexp.QuoteMeta(insertBookingSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery(regexp.QuoteMeta(insertBookingSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(22)))

	first, err := s.CreateBooking(context.Background(), testBooking())
	if err != nil {
		t.Fatalf("first CreateBooking error: %v", err)
	}
	second, err := s.CreateBooking(context.Background(), testBooking())
	if err != nil {
		t.Fatalf("second CreateBooking error: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct IDs, both were %d", first)
	}
}

func TestCreateBookingPersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(insertBookingSQL)).
		WillReturnError(errors.New("connection refused"))

	if _, err := s.CreateBooking(context.Background(), testBooking()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCreateBookingExclusiveRejectsOverlap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(3), "2024-06-01", "18:00", "19:00").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = s.CreateBookingExclusive(context.Background(), testBooking())
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingExclusiveInsertsWhenFree(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta(insertBookingSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(33)))
	mock.ExpectCommit()

	id, err := s.CreateBookingExclusive(context.Background(), testBooking())
	if err != nil {
		t.Fatalf("CreateBookingExclusive error: %v", err)
	}
	if id != 33 {
		t.Errorf("expected booking ID 33, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingsForDateOrdered(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery("SELECT id, venue_id, to_char").
		WithArgs(int64(3), "2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "venue_id", "start", "end"}).
			AddRow(int64(1), int64(3), "06:00", "07:00").
			AddRow(int64(2), int64(3), "18:00", "19:00"))

	slots, err := s.BookingsForDate(context.Background(), 3, "2024-06-01")
	if err != nil {
		t.Fatalf("BookingsForDate error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].StartTime != "06:00" || slots[1].StartTime != "18:00" {
		t.Errorf("slots out of order: %+v", slots)
	}
}

func TestBookingsForDateEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery("SELECT id, venue_id, to_char").
		WithArgs(int64(3), "2024-06-02").
		WillReturnRows(sqlmock.NewRows([]string{"id", "venue_id", "start", "end"}))

	slots, err := s.BookingsForDate(context.Background(), 3, "2024-06-02")
	if err != nil {
		t.Fatalf("BookingsForDate error: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", slots)
	}
}
