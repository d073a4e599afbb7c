package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/user/internal/otel"
	"github.com/Alturino/storefront/user/internal/service"
	"github.com/Alturino/storefront/user/pkg/request"
)

type UserController struct {
	service *service.UserService
	cfg     config.Application
}

func AttachUserController(router *mux.Router, service *service.UserService, cfg config.Application) {
	controller := UserController{service: service, cfg: cfg}

	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", controller.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	auth.HandleFunc("/admin/login", controller.AdminLogin).Methods(http.MethodPost)
	auth.HandleFunc("/logout", controller.Logout).Methods(http.MethodPost)

	profile := router.PathPrefix("/profile").Subrouter()
	profile.Use(middleware.RequireAuth)
	profile.HandleFunc("", controller.Profile).Methods(http.MethodGet)
	profile.HandleFunc("", controller.UpdateProfile).Methods(http.MethodPut)
	profile.HandleFunc("/password", controller.UpdatePassword).Methods(http.MethodPut)
}

func sessionView(s session.Session) map[string]interface{} {
	return map[string]interface{}{
		"user":          s.State.User,
		"authenticated": s.Authenticated(),
		"cartCount":     s.State.CartCount,
	}
}

func (ctrl UserController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserController Login").
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Debug().Msg("decoding request body")
	reqBody := request.LoginRequest{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Object(constants.KEY_REQUEST_BODY, reqBody).Logger()
	logger.Debug().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "logging in").Logger()
	sess, err = ctrl.service.Login(logger.WithContext(c), sess.ID, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	logger.Info().Msg("logged in")

	middleware.SetSessionCookie(w, ctrl.cfg, sess.ID)
	inHttp.WriteSuccess(c, w, http.StatusOK, "logged in", sessionView(sess))
}

func (ctrl UserController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController AdminLogin")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.LoginRequest{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	sess, err = ctrl.service.AdminLogin(c, sess.ID, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	middleware.SetSessionCookie(w, ctrl.cfg, sess.ID)
	inHttp.WriteSuccess(c, w, http.StatusOK, "logged in as admin", sessionView(sess))
}

func (ctrl UserController) Register(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "UserController Register").
		Str(constants.KEY_PROCESS, "registering").
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.Register{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	sess, err = ctrl.service.Register(logger.WithContext(c), sess.ID, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	logger.Info().Msg("registered")

	middleware.SetSessionCookie(w, ctrl.cfg, sess.ID)
	inHttp.WriteSuccess(c, w, http.StatusCreated, "account created", sessionView(sess))
}

func (ctrl UserController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Logout")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	sess, err = ctrl.service.Logout(c, sess.ID)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "logged out", sessionView(sess))
}

func (ctrl UserController) Profile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController Profile")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	user, err := ctrl.service.Profile(c, sess.ID)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "profile found", map[string]interface{}{"user": user})
}

func (ctrl UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController UpdateProfile")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.UpdateProfile{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	user, err := ctrl.service.UpdateProfile(c, sess.ID, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "profile updated", map[string]interface{}{"user": user})
}

func (ctrl UserController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "UserController UpdatePassword")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	reqBody := request.UpdatePassword{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	if err := ctrl.service.UpdatePassword(c, sess.ID, reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "password updated", nil)
}
