// Package httpapi exposes the REST surface: auth, venue listing and booking.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"turfbook/internal/app/bookings"
	"turfbook/internal/app/users"
	"turfbook/internal/app/venues"
	"turfbook/internal/auth"
	"turfbook/internal/store"
)

// maxUploadBytes bounds a multipart venue submission, images included.
const maxUploadBytes = 32 << 20

// maxVenueImages caps how many photos one listing may carry.
const maxVenueImages = 10

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, name, email, password, role string) (users.Session, error)
	Login(ctx context.Context, email, password string) (users.Session, error)
}

// VenueService describes venue registration and lookup workflows.
type VenueService interface {
	Register(ctx context.Context, ownerID int64, in venues.RegisterInput, images [][]byte) (int64, error)
	NearbyVenues(ctx context.Context, lat, lon, radiusKm float64) ([]venues.Nearby, error)
	Get(ctx context.Context, id int64) (*venues.Detail, error)
}

// BookingService coordinates slot reservation and availability reads.
type BookingService interface {
	Book(ctx context.Context, req bookings.Request) (bookings.Confirmation, error)
	Slots(ctx context.Context, venueID int64, date string) ([]store.BookingSlot, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	venues    VenueService
	bookings  BookingService
	jwtSecret string
	validate  *validator.Validate
}

// New configures a Server around the given services. jwtSecret verifies the
// bearer tokens issued at signup and login.
func New(users UserService, venues VenueService, bookings BookingService, jwtSecret string) *Server {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("wallclock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})

	return &Server{
		users:     users,
		venues:    venues,
		bookings:  bookings,
		jwtSecret: jwtSecret,
		validate:  v,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("POST /api/v1/venues", s.handleCreateVenue)
	mux.HandleFunc("GET /api/v1/venues", s.handleNearbyVenues)
	mux.HandleFunc("GET /api/v1/venues/{id}", s.handleGetVenue)
	mux.HandleFunc("GET /api/v1/venues/{id}/bookings", s.handleVenueBookings)

	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)

	return mux
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user owner"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type bookingRequest struct {
	VenueID         int64   `json:"venueId" validate:"required,gt=0"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"startTime" validate:"required,wallclock"`
	EndTime         string  `json:"endTime" validate:"required,wallclock"`
	DurationMinutes int     `json:"durationMinutes" validate:"required,gt=0"`
	Price           float64 `json:"price" validate:"gte=0"`
}

type bookingResponse struct {
	BookingID      int64 `json:"bookingId"`
	NotifiedBooker bool  `json:"notifiedBooker"`
	NotifiedOwner  bool  `json:"notifiedOwner"`
}

type createVenueResponse struct {
	ID int64 `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sess, err := s.users.Signup(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if claims.Role != "owner" {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "owner account required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart payload"})
		return
	}

	in, err := venueInputFromForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) > maxVenueImages {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "too many images"})
		return
	}
	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable image"})
			return
		}
		payload, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable image"})
			return
		}
		images = append(images, payload)
	}

	id, err := s.venues.Register(r.Context(), claims.UserID, in, images)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, venues.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, createVenueResponse{ID: id})
}

func venueInputFromForm(r *http.Request) (venues.RegisterInput, error) {
	var in venues.RegisterInput
	in.Name = strings.TrimSpace(r.FormValue("name"))
	in.Description = strings.TrimSpace(r.FormValue("description"))
	in.OpenTime = r.FormValue("openTime")
	in.CloseTime = r.FormValue("closeTime")

	fields := []struct {
		name string
		dst  *float64
	}{
		{"latitude", &in.Latitude},
		{"longitude", &in.Longitude},
		{"morningWeekdayPrice", &in.Pricing.MorningWeekday},
		{"morningWeekendPrice", &in.Pricing.MorningWeekend},
		{"eveningWeekdayPrice", &in.Pricing.EveningWeekday},
		{"eveningWeekendPrice", &in.Pricing.EveningWeekend},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(r.FormValue(f.name), 64)
		if err != nil {
			return in, errors.New("invalid " + f.name)
		}
		*f.dst = v
	}
	return in, nil
}

func (s *Server) handleNearbyVenues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, err := strconv.ParseFloat(query.Get("lat"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lat parameter"})
		return
	}
	lon, err := strconv.ParseFloat(query.Get("lon"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lon parameter"})
		return
	}

	var radius float64
	if raw := query.Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid radius parameter"})
			return
		}
	}

	results, err := s.venues.NearbyVenues(r.Context(), lat, lon, radius)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, venues.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Venues []venues.Nearby `json:"venues"`
	}{Venues: results})
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue id"})
		return
	}

	detail, err := s.venues.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrVenueNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "venue not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleVenueBookings(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue id"})
		return
	}

	slots, err := s.bookings.Slots(r.Context(), id, r.URL.Query().Get("date"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bookings.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Bookings []store.BookingSlot `json:"bookings"`
	}{Bookings: slots})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	conf, err := s.bookings.Book(r.Context(), bookings.Request{
		UserID:          claims.UserID,
		VenueID:         req.VenueID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
	})
	if err != nil {
		// A committed booking with a failed follow-up step is still a
		// booking; report it as created rather than erroring out.
		if conf.BookingID != 0 {
			writeJSON(w, http.StatusCreated, bookingResponse{
				BookingID:      conf.BookingID,
				NotifiedBooker: conf.NotifiedBooker,
				NotifiedOwner:  conf.NotifiedOwner,
			})
			return
		}

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, bookings.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, store.ErrSlotTaken):
			status = http.StatusConflict
		case errors.Is(err, store.ErrVenueNotFound):
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, bookingResponse{
		BookingID:      conf.BookingID,
		NotifiedBooker: conf.NotifiedBooker,
		NotifiedOwner:  conf.NotifiedOwner,
	})
}

// authenticate resolves the bearer token into claims, writing a 401 when the
// token is missing or invalid.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
		return auth.Claims{}, false
	}
	claims, err := auth.ParseToken(s.jwtSecret, token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid bearer token"})
		return auth.Claims{}, false
	}
	return claims, true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
