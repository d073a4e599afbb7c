package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/internal"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/pkg/request"
)

type Backend interface {
	Register(c context.Context, param backend.Registration) (backend.AuthResult, error)
	Login(c context.Context, param backend.Credentials) (backend.AuthResult, error)
	AdminLogin(c context.Context, param backend.Credentials) (backend.AuthResult, error)
	Logout(c context.Context, token string) error
	Me(c context.Context, token string) (backend.User, error)
	UpdateDetails(c context.Context, token string, param backend.ProfileDetails) (backend.User, error)
	UpdatePassword(c context.Context, token string, param backend.PasswordChange) (string, error)
	Cart(c context.Context, token string) (backend.Cart, error)
}

// PendingDiscarder drops queued cart sync ops of a session.
type PendingDiscarder interface {
	Discard(c context.Context, sessionID string) error
}

type UserService struct {
	backend Backend
	store   session.Store
	pending PendingDiscarder
}

func NewUserService(backend Backend, store session.Store, pending PendingDiscarder) *UserService {
	return &UserService{backend: backend, store: store, pending: pending}
}

// establish binds token to the session and moves it to a new id; callers must hand the returned id to the
// client. The user comes from the auth result or /auth/me, and for customers the server cart replaces the local one.
func (svc *UserService) establish(
	c context.Context,
	sessionID string,
	result backend.AuthResult,
	withCart bool,
	role string,
) (session.Session, error) {
	logger := zerolog.Ctx(c).With().Str(constants.KEY_SESSION_ID, sessionID).Logger()

	if result.Token == "" {
		return session.Session{}, fmt.Errorf("failed establishing session with error=%w", inErrors.ErrEmptyAuth)
	}

	user := result.User
	if user == nil {
		logger = logger.With().Str(constants.KEY_PROCESS, "fetching current user").Logger()
		logger.Debug().Msg("fetching current user")
		me, err := svc.backend.Me(c, result.Token)
		if err != nil {
			return session.Session{}, fmt.Errorf("failed fetching current user with error=%w", err)
		}
		user = &me
		logger.Debug().Msg("fetched current user")
	}
	if user.Role == "" {
		if claims, err := internal.InspectToken(c, result.Token); err == nil {
			user.Role = claims.Role
		}
	}
	if role != "" && user.Role != role {
		return session.Session{}, fmt.Errorf("failed establishing session as %s with error=%w", role, inErrors.ErrForbidden)
	}

	actions := []state.Action{state.SetUser{User: *user}}
	if withCart {
		logger = logger.With().Str(constants.KEY_PROCESS, "fetching server cart").Logger()
		logger.Debug().Msg("fetching server cart")
		cart, err := svc.backend.Cart(c, result.Token)
		if err != nil {
			logger.Warn().Err(err).Msg("failed fetching server cart, keeping local cart")
		} else {
			actions = append(actions, state.SetCart{Items: state.FromBackendCart(cart)})
			logger.Debug().Int(constants.KEY_CART_COUNT, len(cart.Items)).Msg("fetched server cart")
		}
	}

	if err := svc.pending.Discard(c, sessionID); err != nil {
		logger.Warn().Err(err).Msg("failed discarding pending cart ops")
	}

	sess, err := session.Rotate(c, svc.store, sessionID, func(s *session.Session) error {
		s.Login(result.Token, actions...)
		return nil
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("failed saving session with error=%w", err)
	}
	return sess, nil
}

func (svc *UserService) Login(
	c context.Context,
	sessionID string,
	param request.LoginRequest,
) (session.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Login").
		Str(constants.KEY_EMAIL, param.Email).
		Str(constants.KEY_SESSION_ID, sessionID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "logging in").Logger()
	logger.Info().Msg("logging in")
	result, err := svc.backend.Login(c, param.Credentials())
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return session.Session{}, err
	}

	sess, err := svc.establish(logger.WithContext(c), sessionID, result, true, "")
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return session.Session{}, err
	}
	logger.Info().Object(constants.KEY_CART, sess.State).Msg("logged in")

	return sess, nil
}

func (svc *UserService) AdminLogin(
	c context.Context,
	sessionID string,
	param request.LoginRequest,
) (session.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService AdminLogin")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService AdminLogin").
		Str(constants.KEY_EMAIL, param.Email).
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "logging in admin").
		Logger()

	logger.Info().Msg("logging in admin")
	result, err := svc.backend.AdminLogin(c, param.Credentials())
	if err != nil {
		err = fmt.Errorf("failed logging in admin with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return session.Session{}, err
	}
	sess, err := svc.establish(logger.WithContext(c), sessionID, result, false, constants.ROLE_ADMIN)
	if err != nil {
		inOtel.RecordError(err, span)
		if errors.Is(err, inErrors.ErrForbidden) {
			logger.Info().Err(err).Msg(err.Error())
		} else {
			logger.Error().Err(err).Msg(err.Error())
		}
		return session.Session{}, err
	}
	logger.Info().Msg("logged in admin")

	return sess, nil
}

func (svc *UserService) Register(
	c context.Context,
	sessionID string,
	param request.Register,
) (session.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Register").
		Object(constants.KEY_REQUEST, param).
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "registering").
		Logger()

	logger.Info().Msg("registering")
	result, err := svc.backend.Register(c, param.Registration())
	if err != nil {
		err = fmt.Errorf("failed registering with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return session.Session{}, err
	}

	sess, err := svc.establish(logger.WithContext(c), sessionID, result, true, "")
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return session.Session{}, err
	}
	logger.Info().Msg("registered")

	return sess, nil
}

// Logout ends the backend session when possible and always clears the local one.
func (svc *UserService) Logout(c context.Context, sessionID string) (session.Session, error) {
	c, span := otel.Tracer.Start(c, "UserService Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Logout").
		Str(constants.KEY_SESSION_ID, sessionID).
		Logger()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return session.Session{}, err
	}

	if sess.Authenticated() {
		logger = logger.With().Str(constants.KEY_PROCESS, "logging out of backend").Logger()
		if err := svc.backend.Logout(c, sess.Token); err != nil {
			logger.Warn().Err(err).Msg("failed logging out of backend")
		}
	}
	if err := svc.pending.Discard(c, sessionID); err != nil {
		logger.Warn().Err(err).Msg("failed discarding pending cart ops")
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "clearing session").Logger()
	sess, err = svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Logout()
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed clearing session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return session.Session{}, err
	}
	logger.Info().Msg("logged out")

	return sess, nil
}

// Profile refreshes the user from the backend, which also refreshes the KYC status.
func (svc *UserService) Profile(c context.Context, sessionID string) (backend.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Profile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService Profile").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "fetching profile").
		Logger()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return backend.User{}, err
	}

	logger.Debug().Msg("fetching profile")
	user, err := svc.backend.Me(c, sess.Token)
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		err = fmt.Errorf("failed fetching profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.User{}, err
	}
	if _, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.SetUser{User: user})
		return nil
	}); err != nil {
		logger.Warn().Err(err).Msg("failed storing refreshed user")
	}
	logger.Debug().Str(constants.KEY_KYC_STATUS, string(user.KYCStatus)).Msg("fetched profile")

	return user, nil
}

func (svc *UserService) UpdateProfile(
	c context.Context,
	sessionID string,
	param request.UpdateProfile,
) (backend.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdateProfile")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService UpdateProfile").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "updating profile").
		Logger()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return backend.User{}, err
	}

	logger.Info().Msg("updating profile")
	user, err := svc.backend.UpdateDetails(c, sess.Token, param.Details())
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		err = fmt.Errorf("failed updating profile with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.User{}, err
	}
	if _, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.SetUser{User: user})
		return nil
	}); err != nil {
		err = fmt.Errorf("failed storing updated user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.User{}, err
	}
	logger.Info().Msg("updated profile")

	return user, nil
}

// UpdatePassword changes the password; the backend issues a fresh token which replaces the old one.
func (svc *UserService) UpdatePassword(
	c context.Context,
	sessionID string,
	param request.UpdatePassword,
) error {
	c, span := otel.Tracer.Start(c, "UserService UpdatePassword")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserService UpdatePassword").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "updating password").
		Logger()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return err
	}

	logger.Info().Msg("updating password")
	token, err := svc.backend.UpdatePassword(c, sess.Token, param.Change())
	if err != nil {
		err = fmt.Errorf("failed updating password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return err
	}
	if token != "" {
		if _, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
			s.Token = token
			return nil
		}); err != nil {
			err = fmt.Errorf("failed storing new token with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	logger.Info().Msg("updated password")

	return nil
}
