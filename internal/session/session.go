// Package session is the explicit load/save boundary for per-visitor state. A request loads its
// Session once, mutations go through Store.Update and nothing is persisted implicitly.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/checkout/pkg/wizard"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/errors"
)

// Session is one visitor's state. BookingID is the booking opened for the current checkout,
// BookingQuote what it was created for, and PaymentOrderID the provider order the payment must carry.
type Session struct {
	ID             string         `json:"id"`
	Token          string         `json:"token,omitempty"`
	State          state.State    `json:"state"`
	Checkout       *wizard.Wizard `json:"checkout,omitempty"`
	BookingID      string         `json:"bookingId,omitempty"`
	BookingQuote   string         `json:"bookingQuote,omitempty"`
	PaymentOrderID string         `json:"paymentOrderId,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func New(now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		State:     state.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", s.ID).
		Bool("authenticated", s.Authenticated()).
		Object("state", s.State)
	if s.Checkout != nil {
		e.Str("checkoutStep", string(s.Checkout.Step))
	}
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

func (s Session) IsAdmin(adminRole string) bool {
	return s.Authenticated() && s.State.User != nil && s.State.User.Role == adminRole
}

// Dispatch runs the actions through the reducer in order.
func (s *Session) Dispatch(actions ...state.Action) {
	for _, a := range actions {
		s.State = state.Reduce(s.State, a)
	}
}

// Login stores the token and user. The caller replaces the cart with the server cart.
func (s *Session) Login(token string, dispatch ...state.Action) {
	s.Token = token
	s.Dispatch(dispatch...)
}

// Downgrade turns the session anonymous: token and user are dropped, cart and wishlist stay.
func (s *Session) Downgrade() {
	s.Token = ""
	s.Dispatch(state.ClearUser{})
}

// ClearBooking forgets the booking and provider order of the current checkout.
func (s *Session) ClearBooking() {
	s.BookingID = ""
	s.BookingQuote = ""
	s.PaymentOrderID = ""
}

// Logout clears everything the session holds for the user.
func (s *Session) Logout() {
	s.Token = ""
	s.Checkout = nil
	s.ClearBooking()
	s.Dispatch(state.ClearUser{}, state.ClearCart{}, state.ClearWishlist{}, state.SetSearchQuery{})
}

// Store persists sessions. Update applies fn atomically with respect to concurrent updates of the same id.
type Store interface {
	Load(c context.Context, id string) (Session, error)
	Save(c context.Context, s Session) error
	Update(c context.Context, id string, fn func(s *Session) error) (Session, error)
	Delete(c context.Context, id string) error
}

// Rotate applies fn to session id and stores the result under a fresh id, then drops the old one.
// A session id known before login is never the one that carries the token.
func Rotate(c context.Context, store Store, id string, fn func(s *Session) error) (Session, error) {
	s, err := store.Load(c, id)
	if err != nil {
		return Session{}, fmt.Errorf("failed loading session with error=%w", err)
	}
	if err := fn(&s); err != nil {
		return Session{}, fmt.Errorf("failed updating session with error=%w", err)
	}

	s.ID = uuid.NewString()
	if err := store.Save(c, s); err != nil {
		return Session{}, fmt.Errorf("failed saving rotated session with error=%w", err)
	}

	logger := zerolog.Ctx(c).With().Str(constants.KEY_SESSION_ID, id).Logger()
	if err := store.Delete(c, id); err != nil {
		logger.Warn().Err(err).Msg("failed deleting session after rotation")
	}
	logger.Debug().Str("rotatedSessionId", s.ID).Msg("rotated session id")
	return s, nil
}

type sessionKey struct{}

func AttachToContext(c context.Context, s Session) context.Context {
	return context.WithValue(c, sessionKey{}, s)
}

func FromContext(c context.Context) (Session, error) {
	s, ok := c.Value(sessionKey{}).(Session)
	if !ok {
		return Session{}, errors.ErrSessionMissing
	}
	return s, nil
}

// DowngradeIfUnauthorized drops the token of session id when err is a backend 401 and reports whether it did.
func DowngradeIfUnauthorized(c context.Context, store Store, id string, err error) bool {
	if !backend.IsUnauthorized(err) {
		return false
	}
	logger := zerolog.Ctx(c).With().Str(constants.KEY_SESSION_ID, id).Logger()
	if _, uerr := store.Update(c, id, func(s *Session) error {
		s.Downgrade()
		return nil
	}); uerr != nil {
		logger.Error().Err(uerr).Msg("failed downgrading session after unauthorized response")
		return true
	}
	logger.Info().Msg("downgraded session after unauthorized response")
	return true
}

// WithToken runs fn with the bearer token of session id and downgrades the session when the backend rejects it.
func WithToken[T any](c context.Context, store Store, id string, fn func(token string) (T, error)) (T, error) {
	var zero T
	s, err := store.Load(c, id)
	if err != nil {
		return zero, fmt.Errorf("failed loading session with error=%w", err)
	}
	out, err := fn(s.Token)
	if err != nil {
		DowngradeIfUnauthorized(c, store, id, err)
		return zero, err
	}
	return out, nil
}
