// Package payment holds the payment method forms and the provider hand-off.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/validate"
)

type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetBanking Method = "netbanking"
)

type Bank string

const (
	BankSBI   Bank = "SBI"
	BankHDFC  Bank = "HDFC"
	BankICICI Bank = "ICICI"
	BankAxis  Bank = "AXIS"
	BankKotak Bank = "KOTAK"
	BankPNB   Bank = "PNB"
)

var Banks = []Bank{BankSBI, BankHDFC, BankICICI, BankAxis, BankKotak, BankPNB}

type CardForm struct {
	Number string `json:"cardNumber" validate:"required,cardnumber"`
	Expiry string `json:"expiry"     validate:"required,cardexpiry"`
	CVV    string `json:"cvv"        validate:"required,cvv"`
	Holder string `json:"holderName" validate:"required"`
}

type UPIForm struct {
	ID string `json:"upiId" validate:"required,upi"`
}

type NetBankingForm struct {
	Bank Bank `json:"bank" validate:"required,oneof=SBI HDFC ICICI AXIS KOTAK PNB"`
}

// Submission is the body of a simple-flow payment: the chosen method and only that method's form.
type Submission struct {
	Method     Method          `json:"method"               validate:"required,oneof=card upi netbanking"`
	Card       *CardForm       `json:"card,omitempty"       validate:"-"`
	UPI        *UPIForm        `json:"upi,omitempty"        validate:"-"`
	NetBanking *NetBankingForm `json:"netbanking,omitempty" validate:"-"`
}

// Validate checks the selected method's form only; the other tabs are ignored.
func (s Submission) Validate(c context.Context) error {
	if err := validate.Struct(c, s); err != nil {
		return err
	}
	var form interface{}
	switch s.Method {
	case MethodCard:
		if s.Card == nil {
			return validate.NewError(map[string]string{"card": "card is required"})
		}
		form = s.Card
	case MethodUPI:
		if s.UPI == nil {
			return validate.NewError(map[string]string{"upi": "upi is required"})
		}
		form = s.UPI
	case MethodNetBanking:
		if s.NetBanking == nil {
			return validate.NewError(map[string]string{"netbanking": "netbanking is required"})
		}
		form = s.NetBanking
	}
	return validate.Struct(c, form)
}

// Intent is what the client needs to open the provider's checkout for a booking.
type Intent struct {
	Key         string `json:"key"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	BookingID   string `json:"bookingId"`
	OrderID     string `json:"orderId"`
	Description string `json:"description"`
}

// MinorUnits converts an amount to the smallest currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// NewOrderID names the provider order a payment for one booking must be made against.
func NewOrderID() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func NewIntent(key, currency, bookingID, orderID string, amount decimal.Decimal) Intent {
	return Intent{
		Key:         key,
		AmountMinor: MinorUnits(amount),
		Currency:    currency,
		BookingID:   bookingID,
		OrderID:     orderID,
		Description: fmt.Sprintf("Booking %s", bookingID),
	}
}

// Callback is the provider's result posted back after checkout.
type Callback struct {
	BookingID string `json:"bookingId"         validate:"required"`
	OrderID   string `json:"razorpayOrderId"   validate:"required"`
	PaymentID string `json:"razorpayPaymentId" validate:"required"`
	Signature string `json:"razorpaySignature" validate:"required"`
}

func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the callback's HMAC-SHA256 of "order_id|payment_id" against secret.
func VerifySignature(secret string, cb Callback) error {
	expected := Sign(secret, cb.OrderID, cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(cb.Signature)) {
		return inErrors.ErrPaymentSignature
	}
	return nil
}
