package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/booking/internal/otel"
	"github.com/Alturino/storefront/booking/pkg/status"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type Backend interface {
	Bookings(c context.Context, token string) ([]backend.Booking, error)
	Booking(c context.Context, token string, id string) (backend.Booking, error)
	UpdateBookingStatus(c context.Context, token string, id string, status backend.BookingStatus) (backend.Booking, error)
	Orders(c context.Context, token string) ([]backend.Order, error)
	Order(c context.Context, token string, id string) (backend.Order, error)
}

type BookingService struct {
	backend Backend
	store   session.Store
}

func NewBookingService(backend Backend, store session.Store) *BookingService {
	return &BookingService{backend: backend, store: store}
}

func (svc *BookingService) Bookings(c context.Context, sessionID string) ([]backend.Booking, error) {
	c, span := otel.Tracer.Start(c, "BookingService Bookings")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "BookingService Bookings").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "finding bookings").
		Logger()

	logger.Debug().Msg("finding bookings")
	bookings, err := session.WithToken(c, svc.store, sessionID, func(token string) ([]backend.Booking, error) {
		return svc.backend.Bookings(c, token)
	})
	if err != nil {
		err = fmt.Errorf("failed finding bookings with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int("count", len(bookings)).Msg("found bookings")

	return bookings, nil
}

func (svc *BookingService) Booking(c context.Context, sessionID string, id string) (backend.Booking, error) {
	c, span := otel.Tracer.Start(
		c,
		"BookingService Booking",
		trace.WithAttributes(attribute.String(constants.KEY_BOOKING_ID, id)),
	)
	defer span.End()

	booking, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Booking, error) {
		return svc.backend.Booking(c, token, id)
	})
	if err != nil {
		err = fmt.Errorf("failed finding booking=%s with error=%w", id, err)
		inOtel.RecordError(err, span)
		return backend.Booking{}, err
	}
	return booking, nil
}

// Cancel lets a customer withdraw a booking that is still pending.
func (svc *BookingService) Cancel(c context.Context, sessionID string, id string) (backend.Booking, error) {
	c, span := otel.Tracer.Start(
		c,
		"BookingService Cancel",
		trace.WithAttributes(attribute.String(constants.KEY_BOOKING_ID, id)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "BookingService Cancel").
		Str(constants.KEY_BOOKING_ID, id).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "cancelling booking").Logger()
	booking, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Booking, error) {
		current, err := svc.backend.Booking(c, token, id)
		if err != nil {
			return backend.Booking{}, err
		}
		if !status.CustomerCancellable(current.Status) {
			return backend.Booking{}, fmt.Errorf(
				"failed cancelling booking in status=%s with error=%w",
				current.Status,
				inErrors.ErrInvalidTransition,
			)
		}
		return svc.backend.UpdateBookingStatus(c, token, id, backend.BookingCancelled)
	})
	if err != nil {
		err = fmt.Errorf("failed cancelling booking with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}
	logger.Info().Msg("cancelled booking")

	return booking, nil
}

func (svc *BookingService) Orders(c context.Context, sessionID string) ([]backend.Order, error) {
	c, span := otel.Tracer.Start(c, "BookingService Orders")
	defer span.End()

	orders, err := session.WithToken(c, svc.store, sessionID, func(token string) ([]backend.Order, error) {
		return svc.backend.Orders(c, token)
	})
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(constants.KEY_TAG, "BookingService Orders").Msg(err.Error())
		return nil, err
	}
	return orders, nil
}

func (svc *BookingService) Order(c context.Context, sessionID string, id string) (backend.Order, error) {
	c, span := otel.Tracer.Start(
		c,
		"BookingService Order",
		trace.WithAttributes(attribute.String(constants.KEY_ORDER_ID, id)),
	)
	defer span.End()

	order, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Order, error) {
		return svc.backend.Order(c, token, id)
	})
	if err != nil {
		err = fmt.Errorf("failed finding order=%s with error=%w", id, err)
		inOtel.RecordError(err, span)
		return backend.Order{}, err
	}
	return order, nil
}
