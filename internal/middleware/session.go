package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

// SetSessionCookie points the client at session id.
func SetSessionCookie(w http.ResponseWriter, cfg config.Application, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(cfg.SessionTTL.Seconds()),
	})
}

// Sessions loads the visitor's session from the cookie, creating one when it is missing or gone,
// and drops an expired token before any handler sees it.
func Sessions(store session.Store, cfg config.Application) func(http.Handler) http.Handler {
	return sessions(store, cfg, time.Now)
}

func sessions(store session.Store, cfg config.Application, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, span := otel.Tracer.Start(r.Context(), "middleware Sessions")
			defer span.End()

			logger := zerolog.Ctx(c).
				With().
				Str(constants.KEY_TAG, "middleware Sessions").
				Str(constants.KEY_PROCESS, "loading session").
				Logger()

			var sess session.Session
			var err error
			cookie, cerr := r.Cookie(cfg.CookieName)
			if cerr == nil && cookie.Value != "" {
				sess, err = store.Load(c, cookie.Value)
			}
			if cerr != nil || cookie.Value == "" || errors.Is(err, inErrors.ErrSessionNotFound) {
				logger.Debug().Msg("creating session")
				sess = session.New(now())
				err = store.Save(c, sess)
				if err == nil {
					SetSessionCookie(w, cfg, sess.ID)
				}
			}
			if err != nil {
				err = fmt.Errorf("failed loading session with error=%w", err)
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailure(c, w, http.StatusServiceUnavailable, err)
				return
			}

			if sess.Authenticated() && internal.TokenExpired(c, sess.Token, now()) {
				logger.Info().Str(constants.KEY_SESSION_ID, sess.ID).Msg("token expired, downgrading session")
				sess, err = store.Update(c, sess.ID, func(s *session.Session) error {
					s.Downgrade()
					return nil
				})
				if err != nil {
					err = fmt.Errorf("failed downgrading session with error=%w", err)
					otel.RecordError(err, span)
					logger.Error().Err(err).Msg(err.Error())
					inHttp.WriteFailure(c, w, http.StatusServiceUnavailable, err)
					return
				}
			}

			logger = logger.With().Str(constants.KEY_SESSION_ID, sess.ID).Logger()
			c = session.AttachToContext(logger.WithContext(c), sess)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}

// RequireAuth rejects anonymous sessions with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		sess, err := session.FromContext(c)
		if err == nil && !sess.Authenticated() {
			err = inErrors.ErrEmptyAuth
		}
		if err != nil {
			zerolog.Ctx(c).Info().Err(err).Str(constants.KEY_TAG, "middleware RequireAuth").Msg(err.Error())
			inHttp.WriteFailure(c, w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects sessions whose user is not an admin with 403, anonymous ones with 401.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := r.Context()
		sess, _ := session.FromContext(c)
		if !sess.IsAdmin(constants.ROLE_ADMIN) {
			zerolog.Ctx(c).Info().
				Err(inErrors.ErrForbidden).
				Str(constants.KEY_TAG, "middleware RequireAdmin").
				Msg(inErrors.ErrForbidden.Error())
			inHttp.WriteFailure(c, w, http.StatusForbidden, inErrors.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
