package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/internal/service"
	"github.com/Alturino/storefront/checkout/pkg/payment"
	"github.com/Alturino/storefront/checkout/pkg/wizard"
	"github.com/Alturino/storefront/internal/constants"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/middleware"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
)

type CheckoutController struct {
	service *service.CheckoutService
}

func AttachCheckoutController(router *mux.Router, service *service.CheckoutService) {
	controller := CheckoutController{service: service}

	checkout := router.PathPrefix("/checkout").Subrouter()
	checkout.Use(middleware.RequireAuth)
	checkout.HandleFunc("/rental", controller.Rental).Methods(http.MethodGet)
	checkout.HandleFunc("/rental/address", controller.SubmitAddress).Methods(http.MethodPost)
	checkout.HandleFunc("/rental/kyc", controller.EvaluateKYC).Methods(http.MethodPost)
	checkout.HandleFunc("/rental/kyc/resume", controller.ResumeKYC).Methods(http.MethodPost)
	checkout.HandleFunc("/rental/review", controller.SubmitReview).Methods(http.MethodPost)
	checkout.HandleFunc("/rental/back", controller.Back).Methods(http.MethodPost)
	checkout.HandleFunc("/rental/payment/callback", controller.PaymentCallback).Methods(http.MethodPost)
	checkout.HandleFunc("/pay", controller.Pay).Methods(http.MethodPost)
	checkout.HandleFunc("/pay/banks", controller.Banks).Methods(http.MethodGet)
}

func rentalData(w wizard.Wizard, redirect *wizard.Redirect) map[string]interface{} {
	data := map[string]interface{}{"checkout": w, "timeSlots": wizard.TimeSlots}
	if redirect != nil {
		data["redirect"] = redirect
	}
	return data
}

// sessionID reads the session attached by middleware, writing the failure itself when it is missing.
func sessionID(w http.ResponseWriter, r *http.Request, span trace.Span) (string, bool) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(r.Context(), w, http.StatusInternalServerError, err)
		return "", false
	}
	return sess.ID, true
}

func (ctrl CheckoutController) Rental(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Rental")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	wiz, err := ctrl.service.Rental(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "checkout loaded", rentalData(wiz, nil))
}

func (ctrl CheckoutController) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController SubmitAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutController SubmitAddress").
		Str(constants.KEY_PROCESS, "decoding request body").
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}

	form := wizard.AddressForm{}
	if err := inHttp.Decode(r, &form); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	wiz, err := ctrl.service.SubmitAddress(logger.WithContext(c), id, form)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailureWith(c, w, http.StatusInternalServerError, err, rentalData(wiz, nil))
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "address saved", rentalData(wiz, nil))
}

func (ctrl CheckoutController) EvaluateKYC(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController EvaluateKYC")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	wiz, redirect, err := ctrl.service.EvaluateKYC(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	if redirect != nil {
		inHttp.WriteSuccess(c, w, http.StatusOK, "kyc verification required", rentalData(wiz, redirect))
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "kyc verified", rentalData(wiz, nil))
}

func (ctrl CheckoutController) ResumeKYC(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController ResumeKYC")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}

	snapshot := wizard.Snapshot{}
	if err := inHttp.Decode(r, &snapshot); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	wiz, redirect, err := ctrl.service.ResumeKYC(c, id, snapshot)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "checkout resumed", rentalData(wiz, redirect))
}

func (ctrl CheckoutController) SubmitReview(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController SubmitReview")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutController SubmitReview").
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}

	form := wizard.ReviewForm{}
	if err := inHttp.Decode(r, &form); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	wiz, intent, err := ctrl.service.SubmitReview(logger.WithContext(c), id, form)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailureWith(c, w, http.StatusBadGateway, err, rentalData(wiz, nil))
		return
	}
	data := rentalData(wiz, nil)
	data["payment"] = intent
	inHttp.WriteSuccess(c, w, http.StatusOK, "booking created, continue to payment", data)
}

func (ctrl CheckoutController) Back(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Back")
	defer span.End()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}
	wiz, err := ctrl.service.Back(c, id)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusInternalServerError, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "checkout updated", rentalData(wiz, nil))
}

func (ctrl CheckoutController) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController PaymentCallback")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutController PaymentCallback").
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}

	cb := payment.Callback{}
	if err := inHttp.DecodeAndValidate(c, r, &cb); err != nil {
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	booking, err := ctrl.service.PaymentCallback(logger.WithContext(c), id, cb)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "payment successful", map[string]interface{}{"booking": booking})
}

func (ctrl CheckoutController) Pay(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CheckoutController Pay")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutController Pay").
		Logger()

	id, ok := sessionID(w, r, span)
	if !ok {
		return
	}

	submission := payment.Submission{}
	if err := inHttp.Decode(r, &submission); err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadRequest, err)
		return
	}

	booking, err := ctrl.service.Pay(logger.WithContext(c), id, submission)
	if err != nil {
		inOtel.RecordError(err, span)
		inHttp.WriteFailure(c, w, http.StatusBadGateway, err)
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "payment successful", map[string]interface{}{"booking": booking})
}

func (ctrl CheckoutController) Banks(w http.ResponseWriter, r *http.Request) {
	inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "banks found", map[string]interface{}{"banks": payment.Banks})
}
