package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type CreateBooking struct {
	Items         []BookingItem   `json:"items"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Address       *Address        `json:"address,omitempty"`
	DeliveryDate  string          `json:"deliveryDate,omitempty"`
	TimeSlot      string          `json:"timeSlot,omitempty"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status"`
}

type PaymentStatusUpdate struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentID     string        `json:"paymentId,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
}

func (cl *Client) CreateBooking(c context.Context, token string, param CreateBooking) (Booking, error) {
	booking := Booking{}
	_, err := cl.do(
		c,
		call{method: http.MethodPost, path: "/bookings", token: token, body: param},
		&booking,
	)
	return booking, err
}

// Bookings lists the caller's bookings, or every booking when the token belongs to an admin.
func (cl *Client) Bookings(c context.Context, token string) ([]Booking, error) {
	bookings := []Booking{}
	_, err := cl.do(c, call{method: http.MethodGet, path: "/bookings", token: token}, &bookings)
	return bookings, err
}

func (cl *Client) Booking(c context.Context, token string, id string) (Booking, error) {
	booking := Booking{}
	_, err := cl.do(
		c,
		call{method: http.MethodGet, path: "/bookings/" + url.PathEscape(id), token: token},
		&booking,
	)
	return booking, err
}

func (cl *Client) UpdateBookingStatus(
	c context.Context,
	token string,
	id string,
	status BookingStatus,
) (Booking, error) {
	booking := Booking{}
	_, err := cl.do(
		c,
		call{
			method: http.MethodPut,
			path:   "/bookings/" + url.PathEscape(id),
			token:  token,
			body:   BookingStatusUpdate{Status: status},
		},
		&booking,
	)
	return booking, err
}

func (cl *Client) UpdatePaymentStatus(
	c context.Context,
	token string,
	id string,
	param PaymentStatusUpdate,
) (Booking, error) {
	booking := Booking{}
	_, err := cl.do(
		c,
		call{
			method: http.MethodPut,
			path:   "/bookings/" + url.PathEscape(id) + "/payment-status",
			token:  token,
			body:   param,
		},
		&booking,
	)
	return booking, err
}
