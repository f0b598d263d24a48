package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation_error"
	KindPermissionDenied  Kind = "permission_denied"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
)

// Error is a request-level failure that maps onto an HTTP status.
type Error struct {
	Code    int
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so copies built with WithField or Wrap
// still compare equal to the sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithField returns a copy carrying an extra field-level detail.
func (e *Error) WithField(field, msg string) *Error {
	cp := *e
	cp.Fields = make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[field] = msg
	return &cp
}

func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(code int, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message)
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, KindValidation, message)
}

func PermissionDenied(message string) *Error {
	return New(http.StatusForbidden, KindPermissionDenied, message)
}

func InvalidTransition(message string) *Error {
	return New(http.StatusConflict, KindInvalidTransition, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, KindUnauthorized, message)
}

var (
	ErrAddressNotFound  = NotFound("address not found")
	ErrProductNotFound  = NotFound("product not found")
	ErrCategoryNotFound = NotFound("category not found")
	ErrOrderNotFound    = NotFound("order not found")
	ErrPaymentNotFound  = NotFound("payment not found")
	ErrReviewNotFound   = NotFound("review not found")
	ErrUserNotFound     = NotFound("user not found")

	ErrInvalidQuantity   = Validation("quantity must be greater than zero")
	ErrEmptyOrder        = Validation("an order needs at least one item")
	ErrNegativePrice     = Validation("price must not be negative")
	ErrNegativeStock     = Validation("stock must not be negative")
	ErrInvalidRating     = Validation("rating must be between 1 and 5")
	ErrDuplicateReview   = Validation("You have already submitted a review for this product.")
	ErrDuplicateSlug     = Validation("a category with this slug already exists")
	ErrEmptySlug         = Validation("name must contain at least one letter or number")
	ErrCategoryInUse     = Validation("category has products that appear in existing orders")
	ErrProductInUse      = Validation("product appears in existing orders and cannot be deleted")
	ErrUsernameTaken     = Validation("a user with that username already exists")
	ErrEmailTaken        = Validation("a user with that email already exists")
	ErrRoleNotAllowed    = Validation("role must be CUSTOMER or SELLER")
	ErrWeakPassword      = Validation("password does not meet requirements")
	ErrInvalidStatus     = Validation("unknown order status")
	ErrNotYourOrder      = PermissionDenied("you do not have permission to act on this order")
	ErrNotYourReview     = PermissionDenied("you can only modify your own reviews")
	ErrNotYourPayment    = PermissionDenied("you do not have permission to view this payment")
	ErrAdminOnly         = PermissionDenied("admin role required")
	ErrInvalidTransition = InvalidTransition("order status does not allow this change")
	ErrPaymentNotDue     = InvalidTransition("order is not awaiting payment")

	ErrInvalidCredentials = Unauthorized("invalid username or password")
	ErrUnauthorized       = Unauthorized("unauthorized")
)

// As extracts an *Error from the chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}
