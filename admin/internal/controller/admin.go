package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/admin/internal/otel"
	"github.com/Alturino/storefront/admin/internal/service"
	"github.com/Alturino/storefront/booking/pkg/status"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type statusUpdate struct {
	Status backend.BookingStatus `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}

type AdminController struct {
	service *service.AdminService
}

func AttachAdminController(router *mux.Router, service *service.AdminService) {
	controller := AdminController{service: service}

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", controller.Users).Methods(http.MethodGet)
	admin.HandleFunc("/users", controller.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{userId}", controller.User).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userId}", controller.UpdateUser).Methods(http.MethodPut)
	admin.HandleFunc("/users/{userId}", controller.DeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/banners", controller.Banners).Methods(http.MethodGet)
	admin.HandleFunc("/banners", controller.CreateBanner).Methods(http.MethodPost)
	admin.HandleFunc("/banners/{bannerId}", controller.UpdateBanner).Methods(http.MethodPut)
	admin.HandleFunc("/banners/{bannerId}", controller.DeleteBanner).Methods(http.MethodDelete)
	admin.HandleFunc("/bookings", controller.Bookings).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/{bookingId}/status", controller.UpdateBookingStatus).Methods(http.MethodPut)
}

func sessionID(w http.ResponseWriter, r *http.Request, span trace.Span) (string, bool) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(r.Context(), w, http.StatusInternalServerError, err)
		return "", false
	}
	return sess.ID, true
}

func (ctrl AdminController) Users(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController Users")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	users, err := ctrl.service.Users(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "users found", map[string]interface{}{"users": users})
}

func (ctrl AdminController) User(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController User")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	user, err := ctrl.service.User(c, id, mux.Vars(r)["userId"])
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "user found", map[string]interface{}{"user": user})
}

func (ctrl AdminController) CreateUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController CreateUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminController CreateUser").
		Str(constants.KEY_PROCESS, "decoding request body").
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	reqBody := backend.UserInput{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	user, err := ctrl.service.CreateUser(logger.WithContext(c), id, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusCreated, "user created", map[string]interface{}{"user": user})
}

func (ctrl AdminController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController UpdateUser")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	reqBody := backend.UserInput{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	user, err := ctrl.service.UpdateUser(c, id, mux.Vars(r)["userId"], reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "user updated", map[string]interface{}{"user": user})
}

func (ctrl AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController DeleteUser")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	if err := ctrl.service.DeleteUser(c, id, mux.Vars(r)["userId"]); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "user deleted", nil)
}

func (ctrl AdminController) Banners(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController Banners")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	banners, err := ctrl.service.Banners(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "banners found", map[string]interface{}{"banners": banners})
}

func (ctrl AdminController) CreateBanner(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController CreateBanner")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	reqBody := backend.BannerInput{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	banner, err := ctrl.service.CreateBanner(c, id, reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusCreated, "banner created", map[string]interface{}{"banner": banner})
}

func (ctrl AdminController) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController UpdateBanner")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	reqBody := backend.BannerInput{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	banner, err := ctrl.service.UpdateBanner(c, id, mux.Vars(r)["bannerId"], reqBody)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "banner updated", map[string]interface{}{"banner": banner})
}

func (ctrl AdminController) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController DeleteBanner")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	if err := ctrl.service.DeleteBanner(c, id, mux.Vars(r)["bannerId"]); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "banner deleted", nil)
}

func (ctrl AdminController) Bookings(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController Bookings")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	bookings, err := ctrl.service.Bookings(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}

	next := make(map[string][]backend.BookingStatus, len(bookings))
	for _, b := range bookings {
		next[b.ID] = status.Next(b.Status)
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "bookings found", map[string]interface{}{
		"bookings":    bookings,
		"transitions": next,
	})
}

func (ctrl AdminController) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AdminController UpdateBookingStatus")
	defer span.End()

	bookingID := mux.Vars(r)["bookingId"]
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "AdminController UpdateBookingStatus").
		Str(constants.KEY_BOOKING_ID, bookingID).
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	reqBody := statusUpdate{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	booking, err := ctrl.service.UpdateBookingStatus(logger.WithContext(c), id, bookingID, reqBody.Status)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "booking status updated", map[string]interface{}{"booking": booking})
}
