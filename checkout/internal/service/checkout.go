package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/checkout/internal/otel"
	"github.com/Alturino/storefront/checkout/pkg/payment"
	"github.com/Alturino/storefront/checkout/pkg/wizard"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inOtel "github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/validate"
)

const (
	methodGateway   = "razorpay"
	simulatedPrefix = "sim_"
)

type Backend interface {
	Me(c context.Context, token string) (backend.User, error)
	CreateBooking(c context.Context, token string, param backend.CreateBooking) (backend.Booking, error)
	UpdateBookingStatus(c context.Context, token string, id string, status backend.BookingStatus) (backend.Booking, error)
	UpdatePaymentStatus(
		c context.Context,
		token string,
		id string,
		param backend.PaymentStatusUpdate,
	) (backend.Booking, error)
}

// CartClearer empties the session cart locally and on the backend.
type CartClearer interface {
	Clear(c context.Context, sessionID string) (state.State, error)
}

type CheckoutService struct {
	backend Backend
	store   session.Store
	cart    CartClearer
	cfg     config.Payment
	loc     *time.Location
	now     func() time.Time
	wait    func(c context.Context, d time.Duration) error
}

func NewCheckoutService(
	backend Backend,
	store session.Store,
	cart CartClearer,
	cfg config.Payment,
	loc *time.Location,
) *CheckoutService {
	return &CheckoutService{
		backend: backend,
		store:   store,
		cart:    cart,
		cfg:     cfg,
		loc:     loc,
		now:     time.Now,
		wait:    wait,
	}
}

// wait blocks for d or until c is done.
func wait(c context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.Done():
		return c.Err()
	case <-timer.C:
		return nil
	}
}

func bookingItems(items []state.LineItem) []backend.BookingItem {
	out := make([]backend.BookingItem, 0, len(items))
	for _, item := range items {
		out = append(out, backend.BookingItem{
			ItemID:    item.ID,
			Type:      string(item.Type),
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ProductID: item.ProductID,
			ServiceID: item.ServiceID,
		})
	}
	return out
}

// quote fingerprints what a booking is created for. A session booking is reused only while its quote holds.
func quote(st state.State, details ...string) string {
	var b strings.Builder
	for _, item := range st.Cart {
		fmt.Fprintf(&b, "%s:%s:%d:%s;", item.Type, item.ID, item.Quantity, item.Price.String())
	}
	b.WriteString(st.CartTotal.String())
	for _, d := range details {
		b.WriteString("|" + d)
	}
	return b.String()
}

func rentalQuote(st state.State, w wizard.Wizard) string {
	a := w.Address
	return quote(st, a.Line1, a.Line2, a.Landmark, a.City, a.State, a.Pincode, w.Review.DeliveryDate, w.Review.TimeSlot)
}

// book returns sess unchanged when its booking was created for q. Otherwise it creates a new booking,
// cancels the stale one it replaces and opens a new provider order for it.
func (svc *CheckoutService) book(
	c context.Context,
	sessionID string,
	sess session.Session,
	q string,
	param backend.CreateBooking,
) (session.Session, error) {
	if sess.BookingID != "" && sess.BookingQuote == q {
		return sess, nil
	}

	logger := zerolog.Ctx(c).With().Str(constants.KEY_PROCESS, "creating booking").Logger()
	if sess.BookingID != "" {
		lg := logger.With().Str(constants.KEY_BOOKING_ID, sess.BookingID).Logger()
		lg.Info().Msg("checkout changed since booking, cancelling stale booking")
		if _, err := svc.backend.UpdateBookingStatus(c, sess.Token, sess.BookingID, backend.BookingCancelled); err != nil {
			lg.Warn().Err(err).Msg("failed cancelling stale booking")
		}
	}

	logger.Debug().Msg("creating booking")
	booking, err := svc.backend.CreateBooking(c, sess.Token, param)
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		return session.Session{}, fmt.Errorf("failed creating booking with error=%w", err)
	}
	logger.Info().Str(constants.KEY_BOOKING_ID, booking.ID).Msg("created booking")

	updated, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		if s.Checkout != nil {
			s.Checkout.BookingID = booking.ID
		}
		s.BookingID = booking.ID
		s.BookingQuote = q
		s.PaymentOrderID = payment.NewOrderID()
		return nil
	})
	if err != nil {
		return session.Session{}, fmt.Errorf("failed storing booking with error=%w", err)
	}
	return updated, nil
}

func current(s session.Session) wizard.Wizard {
	if s.Checkout == nil {
		return wizard.New()
	}
	return *s.Checkout
}

// step runs fn against the session wizard and stores the result. Validation failures are stored
// too so the form keeps what was typed, and are returned after saving.
func (svc *CheckoutService) step(
	c context.Context,
	sessionID string,
	fn func(s *session.Session, w wizard.Wizard) (wizard.Wizard, error),
) (wizard.Wizard, error) {
	var stepErr error
	sess, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		if len(s.State.Cart) == 0 {
			return inErrors.ErrEmptyCart
		}
		w, err := fn(s, current(*s))
		var verr *validate.Error
		if err != nil && !errors.As(err, &verr) {
			return err
		}
		stepErr = err
		s.Checkout = &w
		return nil
	})
	if err != nil {
		return wizard.Wizard{}, err
	}
	return *sess.Checkout, stepErr
}

func (svc *CheckoutService) Rental(c context.Context, sessionID string) (wizard.Wizard, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Rental")
	defer span.End()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return wizard.Wizard{}, err
	}
	return current(sess), nil
}

func (svc *CheckoutService) SubmitAddress(
	c context.Context,
	sessionID string,
	form wizard.AddressForm,
) (wizard.Wizard, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitAddress")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutService SubmitAddress").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "submitting address").
		Logger()

	logger.Debug().Msg("submitting address")
	w, err := svc.step(c, sessionID, func(s *session.Session, w wizard.Wizard) (wizard.Wizard, error) {
		return w.SubmitAddress(c, form)
	})
	if err != nil {
		err = fmt.Errorf("failed submitting address with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return w, err
	}
	logger.Info().Str(constants.KEY_STEP, string(w.Step)).Msg("submitted address")

	return w, nil
}

// kycStatus reads the current KYC status from the backend so a fresh upload is picked up.
func (svc *CheckoutService) kycStatus(c context.Context, sessionID string, token string) (backend.User, error) {
	user, err := svc.backend.Me(c, token)
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		return backend.User{}, fmt.Errorf("failed fetching kyc status with error=%w", err)
	}
	return user, nil
}

func (svc *CheckoutService) evaluate(
	c context.Context,
	sessionID string,
	resume *wizard.Snapshot,
) (wizard.Wizard, *wizard.Redirect, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PROCESS, "evaluating kyc").
		Logger()

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		return wizard.Wizard{}, nil, fmt.Errorf("failed loading session with error=%w", err)
	}
	user, err := svc.kycStatus(c, sessionID, sess.Token)
	if err != nil {
		return wizard.Wizard{}, nil, err
	}
	logger = logger.With().Str(constants.KEY_KYC_STATUS, string(user.KYCStatus)).Logger()

	var redirect *wizard.Redirect
	w, err := svc.step(c, sessionID, func(s *session.Session, w wizard.Wizard) (wizard.Wizard, error) {
		s.Dispatch(state.SetUser{User: user})
		if resume != nil {
			w = wizard.Resume(c, w, *resume)
		}
		var err error
		w, redirect, err = w.EvaluateKYC(user.KYCStatus)
		return w, err
	})
	if err != nil {
		return w, nil, fmt.Errorf("failed evaluating kyc with error=%w", err)
	}
	logger.Info().Str(constants.KEY_STEP, string(w.Step)).Bool("redirect", redirect != nil).Msg("evaluated kyc")
	return w, redirect, nil
}

func (svc *CheckoutService) EvaluateKYC(
	c context.Context,
	sessionID string,
) (wizard.Wizard, *wizard.Redirect, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService EvaluateKYC")
	defer span.End()

	w, redirect, err := svc.evaluate(c, sessionID, nil)
	if err != nil {
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Info().Err(err).Str(constants.KEY_TAG, "CheckoutService EvaluateKYC").Msg(err.Error())
		return w, nil, err
	}
	return w, redirect, nil
}

// ResumeKYC restores the wizard from the navigation snapshot after the upload page and evaluates KYC again.
func (svc *CheckoutService) ResumeKYC(
	c context.Context,
	sessionID string,
	snapshot wizard.Snapshot,
) (wizard.Wizard, *wizard.Redirect, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService ResumeKYC")
	defer span.End()

	w, redirect, err := svc.evaluate(c, sessionID, &snapshot)
	if err != nil {
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Info().Err(err).Str(constants.KEY_TAG, "CheckoutService ResumeKYC").Msg(err.Error())
		return w, nil, err
	}
	return w, redirect, nil
}

func (svc *CheckoutService) Back(c context.Context, sessionID string) (wizard.Wizard, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Back")
	defer span.End()

	w, err := svc.step(c, sessionID, func(s *session.Session, w wizard.Wizard) (wizard.Wizard, error) {
		return w.Back(), nil
	})
	if err != nil {
		err = fmt.Errorf("failed stepping back with error=%w", err)
		inOtel.RecordError(err, span)
		return w, err
	}
	return w, nil
}

// SubmitReview validates the schedule, books the cart unless the session booking still matches it,
// and returns the provider intent.
func (svc *CheckoutService) SubmitReview(
	c context.Context,
	sessionID string,
	form wizard.ReviewForm,
) (wizard.Wizard, payment.Intent, error) {
	c, span := otel.Tracer.Start(c, "CheckoutService SubmitReview")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutService SubmitReview").
		Str(constants.KEY_SESSION_ID, sessionID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "submitting review").Logger()
	w, err := svc.step(c, sessionID, func(s *session.Session, w wizard.Wizard) (wizard.Wizard, error) {
		return w.SubmitReview(c, form, svc.now(), svc.loc)
	})
	if err != nil {
		err = fmt.Errorf("failed submitting review with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return w, payment.Intent{}, err
	}

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return w, payment.Intent{}, err
	}

	address := w.Address.ToBackend()
	booked, err := svc.book(logger.WithContext(c), sessionID, sess, rentalQuote(sess.State, w), backend.CreateBooking{
		Items:         bookingItems(sess.State.Cart),
		Amount:        sess.State.CartTotal,
		PaymentMethod: methodGateway,
		Address:       &address,
		DeliveryDate:  w.Review.DeliveryDate,
		TimeSlot:      w.Review.TimeSlot,
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return w, payment.Intent{}, err
	}
	if booked.Checkout != nil {
		w = *booked.Checkout
	}

	// The amount is the one the booking was made for, even if the cart has moved on since.
	intent := payment.NewIntent(
		svc.cfg.KeyID,
		svc.cfg.Currency,
		booked.BookingID,
		booked.PaymentOrderID,
		sess.State.CartTotal,
	)
	logger.Info().
		Str(constants.KEY_BOOKING_ID, booked.BookingID).
		Int64("amountMinor", intent.AmountMinor).
		Msg("ready for payment")
	return w, intent, nil
}

// complete marks bookingID paid and confirmed, then clears the cart and the checkout.
func (svc *CheckoutService) complete(
	c context.Context,
	sessionID string,
	token string,
	bookingID string,
	paymentID string,
	method string,
) (backend.Booking, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_BOOKING_ID, bookingID).
		Str(constants.KEY_PAYMENT_METHOD, method).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "marking payment completed").Logger()
	booking, err := svc.backend.UpdatePaymentStatus(c, token, bookingID, backend.PaymentStatusUpdate{
		PaymentStatus: backend.PaymentCompleted,
		PaymentID:     paymentID,
		PaymentMethod: method,
	})
	if err != nil {
		session.DowngradeIfUnauthorized(c, svc.store, sessionID, err)
		return backend.Booking{}, fmt.Errorf("failed marking payment completed with error=%w", err)
	}
	logger.Info().Msg("marked payment completed")

	if booking.Status == backend.BookingPending || booking.Status == "" {
		logger = logger.With().Str(constants.KEY_PROCESS, "confirming booking").Logger()
		confirmed, err := svc.backend.UpdateBookingStatus(c, token, bookingID, backend.BookingConfirmed)
		if err != nil {
			logger.Warn().Err(err).Msg("failed confirming booking after payment")
		} else {
			booking = confirmed
		}
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "clearing cart").Logger()
	if _, err := svc.cart.Clear(c, sessionID); err != nil {
		logger.Warn().Err(err).Msg("failed clearing cart after payment")
	}
	if _, err := svc.store.Update(c, sessionID, func(s *session.Session) error {
		s.Checkout = nil
		s.ClearBooking()
		return nil
	}); err != nil {
		logger.Warn().Err(err).Msg("failed clearing checkout after payment")
	}
	logger.Info().Msg("completed checkout")

	return booking, nil
}

func (svc *CheckoutService) PaymentCallback(
	c context.Context,
	sessionID string,
	cb payment.Callback,
) (backend.Booking, error) {
	c, span := otel.Tracer.Start(
		c,
		"CheckoutService PaymentCallback",
		trace.WithAttributes(attribute.String(constants.KEY_BOOKING_ID, cb.BookingID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutService PaymentCallback").
		Str(constants.KEY_BOOKING_ID, cb.BookingID).
		Str(constants.KEY_PROCESS, "verifying payment signature").
		Logger()

	if err := payment.VerifySignature(svc.cfg.KeySecret, cb); err != nil {
		err = fmt.Errorf("failed verifying payment signature with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return backend.Booking{}, err
	}
	if sess.BookingID != cb.BookingID ||
		sess.PaymentOrderID == "" ||
		cb.OrderID != sess.PaymentOrderID ||
		sess.Checkout == nil ||
		!sess.Checkout.ReadyForPayment() {
		err = fmt.Errorf("failed matching booking=%s with error=%w", cb.BookingID, inErrors.ErrCheckoutNotReady)
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}

	booking, err := svc.complete(logger.WithContext(c), sessionID, sess.Token, cb.BookingID, cb.PaymentID, methodGateway)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}
	return booking, nil
}

// Pay runs the simple flow: validate the chosen method, wait out the simulated gateway, then book and mark paid.
func (svc *CheckoutService) Pay(
	c context.Context,
	sessionID string,
	submission payment.Submission,
) (backend.Booking, error) {
	c, span := otel.Tracer.Start(
		c,
		"CheckoutService Pay",
		trace.WithAttributes(attribute.String(constants.KEY_PAYMENT_METHOD, string(submission.Method))),
	)
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "CheckoutService Pay").
		Str(constants.KEY_SESSION_ID, sessionID).
		Str(constants.KEY_PAYMENT_METHOD, string(submission.Method)).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "validating payment").Logger()
	if err := submission.Validate(c); err != nil {
		err = fmt.Errorf("failed validating payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}

	sess, err := svc.store.Load(c, sessionID)
	if err != nil {
		err = fmt.Errorf("failed loading session with error=%w", err)
		inOtel.RecordError(err, span)
		return backend.Booking{}, err
	}
	if len(sess.State.Cart) == 0 {
		err = fmt.Errorf("failed paying with error=%w", inErrors.ErrEmptyCart)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "processing payment").Logger()
	logger.Debug().Dur("delay", svc.cfg.SimulatedDelay).Msg("processing payment")
	if err := svc.wait(c, svc.cfg.SimulatedDelay); err != nil {
		err = fmt.Errorf("failed processing payment with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}

	booked, err := svc.book(logger.WithContext(c), sessionID, sess, quote(sess.State), backend.CreateBooking{
		Items:         bookingItems(sess.State.Cart),
		Amount:        sess.State.CartTotal,
		PaymentMethod: string(submission.Method),
	})
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}
	bookingID := booked.BookingID

	paymentID := simulatedPrefix + uuid.NewString()
	booking, err := svc.complete(logger.WithContext(c), sessionID, sess.Token, bookingID, paymentID, string(submission.Method))
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return backend.Booking{}, err
	}
	return booking, nil
}
