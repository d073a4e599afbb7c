package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/pkg/state"
	"github.com/Alturino/storefront/checkout/pkg/payment"
	"github.com/Alturino/storefront/checkout/pkg/wizard"
	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/session"
	"github.com/Alturino/storefront/internal/validate"
)

const secret = "rzp_secret"

type fakeBackend struct {
	kyc          backend.KYCStatus
	created      []backend.CreateBooking
	payments     []backend.PaymentStatusUpdate
	statuses     []backend.BookingStatus
	createErr    error
	bookingCount int
}

func (f *fakeBackend) Me(c context.Context, token string) (backend.User, error) {
	return backend.User{ID: "u1", KYCStatus: f.kyc}, nil
}

func (f *fakeBackend) CreateBooking(
	c context.Context,
	token string,
	param backend.CreateBooking,
) (backend.Booking, error) {
	if f.createErr != nil {
		return backend.Booking{}, f.createErr
	}
	f.created = append(f.created, param)
	f.bookingCount++
	id := fmt.Sprintf("b%d", f.bookingCount)
	return backend.Booking{ID: id, Status: backend.BookingPending, Amount: param.Amount}, nil
}

func (f *fakeBackend) UpdateBookingStatus(
	c context.Context,
	token string,
	id string,
	status backend.BookingStatus,
) (backend.Booking, error) {
	f.statuses = append(f.statuses, status)
	return backend.Booking{ID: id, Status: status, PaymentStatus: backend.PaymentCompleted}, nil
}

func (f *fakeBackend) UpdatePaymentStatus(
	c context.Context,
	token string,
	id string,
	param backend.PaymentStatusUpdate,
) (backend.Booking, error) {
	f.payments = append(f.payments, param)
	return backend.Booking{ID: id, Status: backend.BookingPending, PaymentStatus: param.PaymentStatus}, nil
}

type fakeCart struct {
	store   session.Store
	cleared []string
}

func (f *fakeCart) Clear(c context.Context, sessionID string) (state.State, error) {
	f.cleared = append(f.cleared, sessionID)
	sess, err := f.store.Update(c, sessionID, func(s *session.Session) error {
		s.Dispatch(state.ClearCart{})
		return nil
	})
	return sess.State, err
}

var (
	now = time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	ist = time.FixedZone("IST", 5*60*60+30*60)
)

func newFixture(t *testing.T, kyc backend.KYCStatus) (*CheckoutService, *fakeBackend, *fakeCart, session.Session) {
	t.Helper()
	store := session.NewMemoryStore()
	s := session.New(now)
	s.Login("tok", state.SetUser{User: backend.User{ID: "u1"}})
	s.Dispatch(state.AddToCart{Item: state.LineItem{
		ID:        "s1",
		Type:      state.ItemService,
		ServiceID: "s1",
		Name:      "Deep cleaning",
		Price:     decimal.RequireFromString("1499.99"),
		Quantity:  1,
	}})
	require.NoError(t, store.Save(context.Background(), s))

	fb := &fakeBackend{kyc: kyc}
	cart := &fakeCart{store: store}
	svc := NewCheckoutService(fb, store, cart, config.Payment{
		KeyID:          "rzp_key",
		KeySecret:      secret,
		Currency:       "INR",
		SimulatedDelay: time.Second,
	}, ist)
	svc.now = func() time.Time { return now }
	svc.wait = func(c context.Context, d time.Duration) error { return c.Err() }
	return svc, fb, cart, s
}

var address = wizard.AddressForm{Line1: "12 MG Road", City: "Bengaluru", State: "KA", Pincode: "560001"}

func TestSubmitAddressKeepsFormOnValidationError(t *testing.T) {
	svc, _, _, s := newFixture(t, backend.KYCVerified)

	w, err := svc.SubmitAddress(context.Background(), s.ID, wizard.AddressForm{Line1: "12 MG Road", Pincode: "12"})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors(), "pincode")
	assert.Equal(t, wizard.StepAddress, w.Step)

	stored, err := svc.Rental(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "12 MG Road", stored.Address.Line1)
}

func TestSubmitAddressRequiresCart(t *testing.T) {
	svc, _, cart, s := newFixture(t, backend.KYCVerified)
	_, err := cart.Clear(context.Background(), s.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAddress(context.Background(), s.ID, address)
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestEvaluateKYCRedirectsUnverified(t *testing.T) {
	svc, _, _, s := newFixture(t, backend.KYCPending)
	_, err := svc.SubmitAddress(context.Background(), s.ID, address)
	require.NoError(t, err)

	w, redirect, err := svc.EvaluateKYC(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, redirect)
	assert.Equal(t, wizard.KYCUploadPath, redirect.Path)
	assert.Equal(t, address, redirect.Snapshot.Address)
	assert.Equal(t, wizard.StepKYC, w.Step)
	assert.Equal(t, backend.KYCPending, w.KYCStatus)
}

func TestResumeKYCAfterVerification(t *testing.T) {
	svc, fb, _, s := newFixture(t, backend.KYCNotSubmitted)
	_, err := svc.SubmitAddress(context.Background(), s.ID, address)
	require.NoError(t, err)
	_, redirect, err := svc.EvaluateKYC(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, redirect)

	fb.kyc = backend.KYCVerified
	w, redirect, err := svc.ResumeKYC(context.Background(), s.ID, redirect.Snapshot)
	require.NoError(t, err)
	assert.Nil(t, redirect)
	assert.Equal(t, wizard.StepReview, w.Step)
	assert.Equal(t, address, w.Address)
}

func reachReview(t *testing.T, svc *CheckoutService, sessionID string) {
	t.Helper()
	_, err := svc.SubmitAddress(context.Background(), sessionID, address)
	require.NoError(t, err)
	_, _, err = svc.EvaluateKYC(context.Background(), sessionID)
	require.NoError(t, err)
}

func TestSubmitReviewCreatesBookingOnce(t *testing.T) {
	svc, fb, _, s := newFixture(t, backend.KYCVerified)
	reachReview(t, svc, s.ID)

	// 22:30 UTC is already March 11 in IST, so tomorrow is March 12.
	_, _, err := svc.SubmitReview(context.Background(), s.ID, wizard.ReviewForm{
		DeliveryDate: "2026-03-11", TimeSlot: "09:00-12:00", TermsAccepted: true,
	})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors(), "deliveryDate")
	assert.Empty(t, fb.created)

	form := wizard.ReviewForm{DeliveryDate: "2026-03-12", TimeSlot: "09:00-12:00", TermsAccepted: true}
	w, intent, err := svc.SubmitReview(context.Background(), s.ID, form)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepPayment, w.Step)
	assert.Equal(t, "b1", w.BookingID)
	assert.Equal(t, int64(149999), intent.AmountMinor)
	assert.Equal(t, "INR", intent.Currency)
	assert.Equal(t, "rzp_key", intent.Key)
	require.Len(t, fb.created, 1)
	assert.Equal(t, "razorpay", fb.created[0].PaymentMethod)
	assert.Equal(t, "560001", fb.created[0].Address.Pincode)
	assert.Equal(t, "s1", fb.created[0].Items[0].ItemID)

	_, again, err := svc.SubmitReview(context.Background(), s.ID, form)
	require.NoError(t, err)
	assert.Len(t, fb.created, 1, "booking reused")
	assert.Equal(t, intent.OrderID, again.OrderID)
	assert.Empty(t, fb.statuses)
}

func TestSubmitReviewRebooksChangedCart(t *testing.T) {
	svc, fb, _, s := newFixture(t, backend.KYCVerified)
	reachReview(t, svc, s.ID)

	form := wizard.ReviewForm{DeliveryDate: "2026-03-12", TimeSlot: "09:00-12:00", TermsAccepted: true}
	_, first, err := svc.SubmitReview(context.Background(), s.ID, form)
	require.NoError(t, err)
	assert.Equal(t, "b1", first.BookingID)

	_, err = svc.store.Update(context.Background(), s.ID, func(sess *session.Session) error {
		sess.Dispatch(state.AddToCart{Item: state.LineItem{
			ID:        "p1",
			Type:      state.ItemProduct,
			ProductID: "p1",
			Name:      "Camera",
			Price:     decimal.RequireFromString("500"),
			Quantity:  1,
		}})
		return nil
	})
	require.NoError(t, err)

	w, second, err := svc.SubmitReview(context.Background(), s.ID, form)
	require.NoError(t, err)
	require.Len(t, fb.created, 2)
	assert.Equal(t, "b2", w.BookingID)
	assert.Equal(t, "b2", second.BookingID)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.True(t, decimal.RequireFromString("1999.99").Equal(fb.created[1].Amount))
	assert.Equal(t, int64(199999), second.AmountMinor)
	assert.Equal(t, []backend.BookingStatus{backend.BookingCancelled}, fb.statuses)

	stale := payment.Callback{
		BookingID: "b1",
		OrderID:   first.OrderID,
		PaymentID: "p1",
		Signature: payment.Sign(secret, first.OrderID, "p1"),
	}
	_, err = svc.PaymentCallback(context.Background(), s.ID, stale)
	assert.ErrorIs(t, err, inErrors.ErrCheckoutNotReady)
	assert.Empty(t, fb.payments)
}

func TestPaymentCallback(t *testing.T) {
	svc, fb, cart, s := newFixture(t, backend.KYCVerified)
	reachReview(t, svc, s.ID)
	_, intent, err := svc.SubmitReview(context.Background(), s.ID, wizard.ReviewForm{
		DeliveryDate: "2026-03-12", TimeSlot: "12:00-15:00", TermsAccepted: true,
	})
	require.NoError(t, err)
	order := intent.OrderID
	require.NotEmpty(t, order)

	forged := payment.Callback{BookingID: "b1", OrderID: order, PaymentID: "p1", Signature: "bad"}
	_, err = svc.PaymentCallback(context.Background(), s.ID, forged)
	assert.ErrorIs(t, err, inErrors.ErrPaymentSignature)
	assert.Empty(t, fb.payments)

	other := payment.Callback{BookingID: "b2", OrderID: order, PaymentID: "p1", Signature: payment.Sign(secret, order, "p1")}
	_, err = svc.PaymentCallback(context.Background(), s.ID, other)
	assert.ErrorIs(t, err, inErrors.ErrCheckoutNotReady)

	replayed := payment.Callback{BookingID: "b1", OrderID: "o1", PaymentID: "p1", Signature: payment.Sign(secret, "o1", "p1")}
	_, err = svc.PaymentCallback(context.Background(), s.ID, replayed)
	assert.ErrorIs(t, err, inErrors.ErrCheckoutNotReady)
	assert.Empty(t, fb.payments)

	cb := payment.Callback{BookingID: "b1", OrderID: order, PaymentID: "p1", Signature: payment.Sign(secret, order, "p1")}
	booking, err := svc.PaymentCallback(context.Background(), s.ID, cb)
	require.NoError(t, err)
	assert.Equal(t, backend.BookingConfirmed, booking.Status)
	require.Len(t, fb.payments, 1)
	assert.Equal(t, "p1", fb.payments[0].PaymentID)
	assert.Equal(t, []backend.BookingStatus{backend.BookingConfirmed}, fb.statuses)
	assert.Equal(t, []string{s.ID}, cart.cleared)

	stored, err := svc.store.Load(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Checkout)
	assert.Empty(t, stored.BookingID)
	assert.Empty(t, stored.PaymentOrderID)
	assert.Empty(t, stored.State.Cart)
}

func TestPay(t *testing.T) {
	svc, fb, cart, s := newFixture(t, backend.KYCVerified)

	_, err := svc.Pay(context.Background(), s.ID, payment.Submission{Method: payment.MethodUPI, UPI: &payment.UPIForm{ID: "nope"}})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, fb.created)

	booking, err := svc.Pay(context.Background(), s.ID, payment.Submission{
		Method: payment.MethodUPI,
		UPI:    &payment.UPIForm{ID: "asha@okhdfc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	require.Len(t, fb.created, 1)
	assert.Equal(t, "upi", fb.created[0].PaymentMethod)
	require.Len(t, fb.payments, 1)
	assert.Equal(t, backend.PaymentCompleted, fb.payments[0].PaymentStatus)
	assert.Contains(t, fb.payments[0].PaymentID, "sim_")
	assert.Len(t, cart.cleared, 1)

	_, err = svc.Pay(context.Background(), s.ID, payment.Submission{
		Method: payment.MethodUPI,
		UPI:    &payment.UPIForm{ID: "asha@okhdfc"},
	})
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestPayCancelled(t *testing.T) {
	svc, fb, _, s := newFixture(t, backend.KYCVerified)
	svc.wait = wait

	c, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Pay(c, s.ID, payment.Submission{
		Method:     payment.MethodNetBanking,
		NetBanking: &payment.NetBankingForm{Bank: payment.BankSBI},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fb.created)
}
