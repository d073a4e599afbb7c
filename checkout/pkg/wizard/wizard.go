// Package wizard is the rental checkout flow: Address, then KYC, then Review.
// A Wizard is a plain value; every transition returns the next value and leaves the receiver untouched.
package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/Alturino/storefront/internal/backend"
	"github.com/Alturino/storefront/internal/validate"
)

type Step string

const (
	StepAddress Step = "address"
	StepKYC     Step = "kyc"
	StepReview  Step = "review"
	StepPayment Step = "payment"
)

const KYCUploadPath = "/kyc/upload"

const dateLayout = "2006-01-02"

var TimeSlots = []string{"09:00-12:00", "12:00-15:00", "15:00-18:00", "18:00-21:00"}

type AddressForm struct {
	Line1    string `json:"line1"              validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city"               validate:"required"`
	State    string `json:"state"              validate:"required"`
	Pincode  string `json:"pincode"            validate:"required,pincode"`
}

func (a AddressForm) ToBackend() backend.Address {
	return backend.Address{
		Line1:    a.Line1,
		Line2:    a.Line2,
		Landmark: a.Landmark,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
	}
}

type ReviewForm struct {
	DeliveryDate  string `json:"deliveryDate"  validate:"required"`
	TimeSlot      string `json:"timeSlot"      validate:"required,oneof=09:00-12:00 12:00-15:00 15:00-18:00 18:00-21:00"`
	TermsAccepted bool   `json:"termsAccepted"`
}

type Wizard struct {
	Step      Step              `json:"step"`
	KYCStatus backend.KYCStatus `json:"kycStatus,omitempty"`
	BookingID string            `json:"bookingId,omitempty"`
	Address   AddressForm       `json:"address"`
	Review    ReviewForm        `json:"review"`
}

// Snapshot is the in-progress form state carried through the KYC upload detour.
type Snapshot struct {
	Step    Step        `json:"step"`
	Address AddressForm `json:"address"`
	Review  ReviewForm  `json:"review"`
}

type Redirect struct {
	Path     string   `json:"path"`
	Snapshot Snapshot `json:"state"`
}

func New() Wizard {
	return Wizard{Step: StepAddress}
}

func (w Wizard) Snapshot() Snapshot {
	return Snapshot{Step: w.Step, Address: w.Address, Review: w.Review}
}

// Resume continues held, the wizard kept in the session, after the KYC upload detour. Step and
// address always come from held; the snapshot only restores the review draft, which SubmitReview
// validates again. A held wizard without a valid address goes back to the Address step.
func Resume(c context.Context, held Wizard, snapshot Snapshot) Wizard {
	w := held
	w.Review = snapshot.Review
	if w.Step == "" || w.Step == StepAddress || validate.Struct(c, w.Address) != nil {
		w.Step = StepAddress
		return w
	}
	w.Step = StepKYC
	return w
}

// SubmitAddress keeps the form on the wizard either way so nothing typed is lost. An invalid
// address sends the flow back to the Address step, whatever step it was on.
func (w Wizard) SubmitAddress(c context.Context, form AddressForm) (Wizard, error) {
	w.Address = form
	if err := validate.Struct(c, form); err != nil {
		w.Step = StepAddress
		return w, err
	}
	if w.Step == StepAddress {
		w.Step = StepKYC
	}
	return w, nil
}

// EvaluateKYC advances to Review only for verified users. Every other status keeps the step and
// returns the redirect to the upload page with the current form state.
func (w Wizard) EvaluateKYC(status backend.KYCStatus) (Wizard, *Redirect, error) {
	if w.Step == StepAddress {
		return w, nil, fmt.Errorf("failed evaluating kyc with error=%w", ErrStepNotReached)
	}
	if status == "" {
		status = backend.KYCNotSubmitted
	}
	w.KYCStatus = status
	if status == backend.KYCVerified {
		if w.Step == StepKYC {
			w.Step = StepReview
		}
		return w, nil, nil
	}
	return w, &Redirect{Path: KYCUploadPath, Snapshot: w.Snapshot()}, nil
}

// SubmitReview checks the delivery date is at least tomorrow in loc, the slot is offered and terms are accepted.
func (w Wizard) SubmitReview(
	c context.Context,
	form ReviewForm,
	now time.Time,
	loc *time.Location,
) (Wizard, error) {
	w.Review = form
	if w.Step != StepReview && w.Step != StepPayment {
		return w, fmt.Errorf("failed submitting review with error=%w", ErrStepNotReached)
	}
	if loc == nil {
		loc = time.UTC
	}

	fields := map[string]string{}
	if err := validate.Struct(c, form); err != nil {
		verr, ok := err.(*validate.Error)
		if !ok {
			return w, err
		}
		for k, v := range verr.FieldErrors() {
			fields[k] = v
		}
	}
	if _, ok := fields["deliveryDate"]; !ok {
		date, err := time.ParseInLocation(dateLayout, form.DeliveryDate, loc)
		if err != nil {
			fields["deliveryDate"] = "deliveryDate must be YYYY-MM-DD"
		} else if date.Before(Tomorrow(now, loc)) {
			fields["deliveryDate"] = "delivery date must be tomorrow or later"
		}
	}
	if !form.TermsAccepted {
		fields["termsAccepted"] = "please accept the terms and conditions"
	}
	if len(fields) > 0 {
		return w, validate.NewError(fields)
	}

	w.Step = StepPayment
	return w, nil
}

// Back moves one step toward Address without clearing any form data.
func (w Wizard) Back() Wizard {
	switch w.Step {
	case StepKYC:
		w.Step = StepAddress
	case StepReview:
		w.Step = StepKYC
	case StepPayment:
		w.Step = StepReview
	}
	return w
}

func (w Wizard) ReadyForPayment() bool {
	return w.Step == StepPayment
}

// Tomorrow is midnight of the calendar day after now in loc.
func Tomorrow(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}
