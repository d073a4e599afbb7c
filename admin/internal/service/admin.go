package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/admin/internal/otel"
	"github.com/Alturino/storefront/booking/pkg/status"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type Backend interface {
	Users(c context.Context, token string) ([]backend.User, error)
	User(c context.Context, token string, id string) (backend.User, error)
	CreateUser(c context.Context, token string, param backend.UserInput) (backend.User, error)
	UpdateUser(c context.Context, token string, id string, param backend.UserInput) (backend.User, error)
	DeleteUser(c context.Context, token string, id string) error

	Banners(c context.Context, token string) ([]backend.Banner, error)
	CreateBanner(c context.Context, token string, param backend.BannerInput) (backend.Banner, error)
	UpdateBanner(c context.Context, token string, id string, param backend.BannerInput) (backend.Banner, error)
	DeleteBanner(c context.Context, token string, id string) error

	Bookings(c context.Context, token string) ([]backend.Booking, error)
	Booking(c context.Context, token string, id string) (backend.Booking, error)
	UpdateBookingStatus(c context.Context, token string, id string, status backend.BookingStatus) (backend.Booking, error)
}

type AdminService struct {
	backend Backend
	store   session.Store
	cache   *redis.Client
}

// NewAdminService wires the admin screens. cache is the catalog cache whose banner entry is dropped on
// every banner change; nil disables invalidation.
func NewAdminService(backend Backend, store session.Store, cache *redis.Client) *AdminService {
	return &AdminService{backend: backend, store: store, cache: cache}
}

func (svc *AdminService) Users(c context.Context, sessionID string) ([]backend.User, error) {
	c, span := otel.Tracer.Start(c, "AdminService Users")
	defer span.End()

	users, err := session.WithToken(c, svc.store, sessionID, func(token string) ([]backend.User, error) {
		return svc.backend.Users(c, token)
	})
	if err != nil {
		err = fmt.Errorf("failed finding users with error=%w", err)
		inOtel.RecordError(err, span)
		return nil, err
	}
	return users, nil
}

func (svc *AdminService) User(c context.Context, sessionID string, id string) (backend.User, error) {
	c, span := otel.Tracer.Start(c, "AdminService User", trace.WithAttributes(attribute.String(constants.KEY_USER_ID, id)))
	defer span.End()

	user, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.User, error) {
		return svc.backend.User(c, token, id)
	})
	if err != nil {
		err = fmt.Errorf("failed finding user=%s with error=%w", id, err)
		inOtel.RecordError(err, span)
		return backend.User{}, err
	}
	return user, nil
}

func (svc *AdminService) CreateUser(c context.Context, sessionID string, param backend.UserInput) (backend.User, error) {
	c, span := otel.Tracer.Start(c, "AdminService CreateUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService CreateUser").
		Str(constants.KEY_EMAIL, param.Email).
		Str(constants.KEY_ROLE, param.Role).
		Str(constants.KEY_PROCESS, "creating user").
		Logger()

	logger.Debug().Msg("creating user")
	user, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.User, error) {
		return svc.backend.CreateUser(c, token, param)
	})
	if err != nil {
		err = fmt.Errorf("failed creating user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.User{}, err
	}
	logger.Info().Str(constants.KEY_USER_ID, user.ID).Msg("created user")

	return user, nil
}

func (svc *AdminService) UpdateUser(
	c context.Context,
	sessionID string,
	id string,
	param backend.UserInput,
) (backend.User, error) {
	c, span := otel.Tracer.Start(c, "AdminService UpdateUser", trace.WithAttributes(attribute.String(constants.KEY_USER_ID, id)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService UpdateUser").
		Str(constants.KEY_USER_ID, id).
		Str(constants.KEY_PROCESS, "updating user").
		Logger()

	user, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.User, error) {
		return svc.backend.UpdateUser(c, token, id, param)
	})
	if err != nil {
		err = fmt.Errorf("failed updating user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.User{}, err
	}
	logger.Info().Msg("updated user")

	return user, nil
}

func (svc *AdminService) DeleteUser(c context.Context, sessionID string, id string) error {
	c, span := otel.Tracer.Start(c, "AdminService DeleteUser", trace.WithAttributes(attribute.String(constants.KEY_USER_ID, id)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService DeleteUser").
		Str(constants.KEY_USER_ID, id).
		Str(constants.KEY_PROCESS, "deleting user").
		Logger()

	_, err := session.WithToken(c, svc.store, sessionID, func(token string) (struct{}, error) {
		return struct{}{}, svc.backend.DeleteUser(c, token, id)
	})
	if err != nil {
		err = fmt.Errorf("failed deleting user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted user")

	return nil
}

func (svc *AdminService) Banners(c context.Context, sessionID string) ([]backend.Banner, error) {
	c, span := otel.Tracer.Start(c, "AdminService Banners")
	defer span.End()

	banners, err := session.WithToken(c, svc.store, sessionID, func(token string) ([]backend.Banner, error) {
		return svc.backend.Banners(c, token)
	})
	if err != nil {
		err = fmt.Errorf("failed finding banners with error=%w", err)
		inOtel.RecordError(err, span)
		return nil, err
	}
	return banners, nil
}

// invalidateBanners drops the cached active banners so the home page picks up the change.
func (svc *AdminService) invalidateBanners(c context.Context) {
	if err := cache.Invalidate(c, svc.cache, constants.CACHE_KEY_ACTIVE_BANNERS); err != nil {
		zerolog.Ctx(c).
			Warn().
			Err(err).
			Str(constants.KEY_CACHE_KEY, constants.CACHE_KEY_ACTIVE_BANNERS).
			Msg("failed invalidating active banners")
	}
}

func (svc *AdminService) CreateBanner(
	c context.Context,
	sessionID string,
	param backend.BannerInput,
) (backend.Banner, error) {
	c, span := otel.Tracer.Start(c, "AdminService CreateBanner")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService CreateBanner").
		Str(constants.KEY_PROCESS, "creating banner").
		Logger()

	banner, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Banner, error) {
		return svc.backend.CreateBanner(c, token, param)
	})
	if err != nil {
		err = fmt.Errorf("failed creating banner with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Banner{}, err
	}
	svc.invalidateBanners(logger.WithContext(c))
	logger.Info().Str(constants.KEY_BANNER_ID, banner.ID).Msg("created banner")

	return banner, nil
}

func (svc *AdminService) UpdateBanner(
	c context.Context,
	sessionID string,
	id string,
	param backend.BannerInput,
) (backend.Banner, error) {
	c, span := otel.Tracer.Start(c, "AdminService UpdateBanner", trace.WithAttributes(attribute.String(constants.KEY_BANNER_ID, id)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService UpdateBanner").
		Str(constants.KEY_BANNER_ID, id).
		Str(constants.KEY_PROCESS, "updating banner").
		Logger()

	banner, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Banner, error) {
		return svc.backend.UpdateBanner(c, token, id, param)
	})
	if err != nil {
		err = fmt.Errorf("failed updating banner with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Banner{}, err
	}
	svc.invalidateBanners(logger.WithContext(c))
	logger.Info().Msg("updated banner")

	return banner, nil
}

func (svc *AdminService) DeleteBanner(c context.Context, sessionID string, id string) error {
	c, span := otel.Tracer.Start(c, "AdminService DeleteBanner", trace.WithAttributes(attribute.String(constants.KEY_BANNER_ID, id)))
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService DeleteBanner").
		Str(constants.KEY_BANNER_ID, id).
		Str(constants.KEY_PROCESS, "deleting banner").
		Logger()

	_, err := session.WithToken(c, svc.store, sessionID, func(token string) (struct{}, error) {
		return struct{}{}, svc.backend.DeleteBanner(c, token, id)
	})
	if err != nil {
		err = fmt.Errorf("failed deleting banner with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	svc.invalidateBanners(logger.WithContext(c))
	logger.Info().Msg("deleted banner")

	return nil
}

func (svc *AdminService) Bookings(c context.Context, sessionID string) ([]backend.Booking, error) {
	c, span := otel.Tracer.Start(c, "AdminService Bookings")
	defer span.End()

	bookings, err := session.WithToken(c, svc.store, sessionID, func(token string) ([]backend.Booking, error) {
		return svc.backend.Bookings(c, token)
	})
	if err != nil {
		err = fmt.Errorf("failed finding bookings with error=%w", err)
		inOtel.RecordError(err, span)
		return nil, err
	}
	return bookings, nil
}

// UpdateBookingStatus checks the move against the booking lifecycle before asking the backend to apply it.
func (svc *AdminService) UpdateBookingStatus(
	c context.Context,
	sessionID string,
	id string,
	next backend.BookingStatus,
) (backend.Booking, error) {
	c, span := otel.Tracer.Start(
		c,
		"AdminService UpdateBookingStatus",
		trace.WithAttributes(attribute.String(constants.KEY_BOOKING_ID, id), attribute.String("status", string(next))),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminService UpdateBookingStatus").
		Str(constants.KEY_BOOKING_ID, id).
		Str("status", string(next)).
		Str(constants.KEY_PROCESS, "updating booking status").
		Logger()

	booking, err := session.WithToken(c, svc.store, sessionID, func(token string) (backend.Booking, error) {
		current, err := svc.backend.Booking(c, token, id)
		if err != nil {
			return backend.Booking{}, err
		}
		if _, err := status.Transition(current.Status, next); err != nil {
			return backend.Booking{}, err
		}
		return svc.backend.UpdateBookingStatus(c, token, id, next)
	})
	if err != nil {
		err = fmt.Errorf("failed updating booking status with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}
	logger.Info().Msg("updated booking status")

	return booking, nil
}
