package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/paper-broker/internal/domain"
)

const CookieName = "session"

// SessionStore is the server-side half of a session.
type SessionStore interface {
	Create(ctx context.Context, sessionID string, userID uuid.UUID) error
	Lookup(ctx context.Context, sessionID string) (uuid.UUID, error)
	Delete(ctx context.Context, sessionID string) error
}

// Sessions maps requests to user ids. The cookie holds a signed token naming
// a server-side session, so logging out revokes it immediately.
type Sessions struct {
	jwt    *JWTService
	store  SessionStore
	ttl    time.Duration
	secure bool
}

func NewSessions(jwtSvc *JWTService, store SessionStore, ttl time.Duration, secureCookie bool) *Sessions {
	return &Sessions{jwt: jwtSvc, store: store, ttl: ttl, secure: secureCookie}
}

func (s *Sessions) Establish(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) error {
	sessionID := uuid.NewString()
	if err := s.store.Create(ctx, sessionID, userID); err != nil {
		return err
	}
	token, err := s.jwt.Sign(userID, sessionID)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Resolve returns the authenticated user or domain.ErrUnauthenticated.
// Store failures are returned as-is so callers can tell them apart.
func (s *Sessions) Resolve(r *http.Request) (uuid.UUID, error) {
	claims, err := s.claims(r)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	userID, err := s.store.Lookup(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, domain.ErrUnauthenticated
		}
		return uuid.Nil, err
	}
	if userID != claims.UserID {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return userID, nil
}

// Clear forgets the request's session, if any, and expires the cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	var err error
	if claims, cerr := s.claims(r); cerr == nil {
		err = s.store.Delete(r.Context(), claims.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (s *Sessions) claims(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}
	return s.jwt.Parse(c.Value)
}
