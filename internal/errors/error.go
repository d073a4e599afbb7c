package errors

import (
	"errors"
)

var (
	ErrEmptyAuth           = errors.New("missing authorization")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("session expired, please log in again")
	ErrForbidden           = errors.New("you are not allowed to access this page")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionMissing      = errors.New("missing session in context")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrEmptyCart           = errors.New("your cart is empty")
	ErrValidation          = errors.New("please correct the highlighted fields")
	ErrPaymentSignature    = errors.New("payment signature mismatch")
	ErrCheckoutNotReady    = errors.New("checkout is not ready for payment")
	ErrTooManyRequests     = errors.New("too many requests, please slow down")
	ErrInternalServerError = errors.New("something went wrong, please try again")
)
