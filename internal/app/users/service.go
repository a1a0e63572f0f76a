// Package users handles account registration and credential-based login.
package users

import (
	"context"
	"time"

	"turfbook/internal/auth"
	"turfbook/internal/store"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateUser(ctx context.Context, name, email, password, role string) (int64, error)
	Authenticate(ctx context.Context, email, password string) (store.User, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
}

// Session is returned on signup and login.
type Session struct {
	User  store.User `json:"user"`
	Token string     `json:"token"`
}

// Service issues JWTs for authenticated users.
type Service struct {
	store     Store
	jwtSecret string
	tokenTTL  time.Duration
}

func New(st Store, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{store: st, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Signup creates an account and logs it straight in.
func (s *Service) Signup(ctx context.Context, name, email, password, role string) (Session, error) {
	id, err := s.store.CreateUser(ctx, name, email, password, role)
	if err != nil {
		return Session{}, err
	}
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return s.session(u)
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.session(u)
}

func (s *Service) session(u store.User) (Session, error) {
	token, err := auth.NewToken(s.jwtSecret, u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}
