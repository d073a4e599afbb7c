package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/booking/internal/otel"
	"github.com/Alturino/storefront/booking/internal/service"
	"github.com/Alturino/storefront/booking/pkg/status"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type BookingController struct {
	service *service.BookingService
}

func AttachBookingController(router *mux.Router, service *service.BookingService) {
	controller := BookingController{service: service}

	bookings := router.PathPrefix("/bookings").Subrouter()
	bookings.Use(middleware.RequireAuth)
	bookings.HandleFunc("", controller.Bookings).Methods(http.MethodGet)
	bookings.HandleFunc("/{bookingId}", controller.Booking).Methods(http.MethodGet)
	bookings.HandleFunc("/{bookingId}/cancel", controller.Cancel).Methods(http.MethodPost)

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.RequireAuth)
	orders.HandleFunc("", controller.Orders).Methods(http.MethodGet)
	orders.HandleFunc("/{orderId}", controller.Order).Methods(http.MethodGet)
}

func (ctrl BookingController) Bookings(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookingController Bookings")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	bookings, err := ctrl.service.Bookings(c, sess.ID)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "bookings found", map[string]interface{}{"bookings": bookings})
}

func (ctrl BookingController) Booking(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookingController Booking")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	booking, err := ctrl.service.Booking(c, sess.ID, mux.Vars(r)["bookingId"])
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "booking found", map[string]interface{}{
		"booking":     booking,
		"cancellable": status.CustomerCancellable(booking.Status),
	})
}

func (ctrl BookingController) Cancel(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookingController Cancel")
	defer span.End()

	id := mux.Vars(r)["bookingId"]
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "BookingController Cancel").
		Str(constants.KEY_BOOKING_ID, id).
		Logger()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	booking, err := ctrl.service.Cancel(logger.WithContext(c), sess.ID, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "booking cancelled", map[string]interface{}{"booking": booking})
}

func (ctrl BookingController) Orders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookingController Orders")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	orders, err := ctrl.service.Orders(c, sess.ID)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "orders found", map[string]interface{}{"orders": orders})
}

func (ctrl BookingController) Order(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "BookingController Order")
	defer span.End()

	sess, err := session.FromContext(c)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}

	order, err := ctrl.service.Order(c, sess.ID, mux.Vars(r)["orderId"])
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "order found", map[string]interface{}{"order": order})
}
