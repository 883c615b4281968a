package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// ErrorResponse is the {type, code, message, details?} envelope spec.md §6
// mandates for every error response this facade returns.
type ErrorResponse struct {
	Type    string                 `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// sentinelKinds maps the flat errors.New sentinels that
// internal/repository/postgres and internal/service still return directly
// (not every codepath wraps its error in a *domain.DomainError) onto the
// same closed ErrorKind set. Checked via errors.Is so a wrapped sentinel
// still matches.
var sentinelKinds = map[error]domain.ErrorKind{
	domain.ErrNotFound:                 domain.KindNotFound,
	domain.ErrProductNotFound:          domain.KindNotFound,
	domain.ErrProductVariantNotFound:   domain.KindNotFound,
	domain.ErrInventoryBalanceNotFound: domain.KindNotFound,
	domain.ErrCartNotFound:             domain.KindNotFound,
	domain.ErrCartItemNotFound:         domain.KindNotFound,
	domain.ErrCheckoutSessionNotFound:  domain.KindNotFound,
	domain.ErrOrderNotFound:            domain.KindNotFound,
	domain.ErrPaymentNotFound:          domain.KindNotFound,
	domain.ErrInvoiceNotFound:          domain.KindNotFound,
	domain.ErrShipmentNotFound:         domain.KindNotFound,
	domain.ErrPurchaseOrderNotFound:    domain.KindNotFound,
	domain.ErrPoLineNotFound:           domain.KindNotFound,
	domain.ErrBomHeaderNotFound:        domain.KindNotFound,
	domain.ErrBomLineNotFound:          domain.KindNotFound,
	domain.ErrNoActiveBom:              domain.KindNotFound,
	domain.ErrWorkOrderNotFound:        domain.KindNotFound,

	domain.ErrCartNotActive:        domain.KindInvalidStateTransition,
	domain.ErrCartEmpty:            domain.KindValidation,
	domain.ErrCheckoutIncomplete:   domain.KindValidation,
	domain.ErrConflictingTaxRate:   domain.KindValidation,
	domain.ErrInvalidOrderTransition: domain.KindInvalidStateTransition,
	domain.ErrInvalidPurchaseOrderTransition: domain.KindInvalidStateTransition,
	domain.ErrInvalidWorkOrderTransition:     domain.KindInvalidStateTransition,
	domain.ErrReceiptExceedsOrdered: domain.KindValidation,
	domain.ErrReturnExceedsReceived: domain.KindValidation,
	domain.ErrInsufficientAvailable: domain.KindInsufficientStock,
	domain.ErrInsufficientAllocated: domain.KindInsufficientStock,
	domain.ErrNegativeOnHand:        domain.KindInsufficientStock,
	domain.ErrInsufficientComponents: domain.KindInsufficientStock,
	domain.ErrCircularBomReference: domain.KindCircularBomReference,
	domain.ErrBomTooDeep:           domain.KindBomTooDeep,
	domain.ErrConcurrentModification: domain.KindConcurrentModification,
	domain.ErrIdempotencyConflict:    domain.KindIdempotencyConflict,
	domain.ErrIdempotencyKeyMissing:  domain.KindValidation,
	domain.ErrRequestBodyTooLarge:    domain.KindValidation,
	domain.ErrUnsupportedApiVersion:  domain.KindUnsupportedVersion,
	domain.ErrPaymentDeclined:        domain.KindPaymentDeclined,
	domain.ErrAlreadyExists:          domain.KindConflict,
	domain.ErrInvalidInput:           domain.KindValidation,
}

var kindToStatus = map[domain.ErrorKind]int{
	domain.KindValidation:             http.StatusBadRequest,
	domain.KindNotFound:               http.StatusNotFound,
	domain.KindConflict:               http.StatusConflict,
	domain.KindConcurrentModification: http.StatusConflict,
	domain.KindInsufficientStock:      http.StatusUnprocessableEntity,
	domain.KindInvalidStateTransition: http.StatusConflict,
	domain.KindIdempotencyConflict:    http.StatusConflict,
	domain.KindCircularBomReference:   http.StatusUnprocessableEntity,
	domain.KindBomTooDeep:             http.StatusUnprocessableEntity,
	domain.KindUnsupportedVersion:     http.StatusGone,
	domain.KindPaymentDeclined:        http.StatusPaymentRequired,
	domain.KindInternal:               http.StatusInternalServerError,
}

// WriteError maps any error returned by the service layer onto the
// envelope and status code spec.md §7's closed error-kind table requires.
// A *domain.DomainError is mapped by its Kind; a flat sentinel from
// errors.go is mapped through the sentinelKinds table; anything else is
// treated as an unexpected internal error and never leaks its message to
// the client.
func WriteError(c echo.Context, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status, ok := kindToStatus[de.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, ErrorResponse{
			Type:    string(de.Kind),
			Code:    de.Code,
			Message: de.Message,
			Details: de.Details,
		})
	}

	for sentinel, kind := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return c.JSON(kindToStatus[kind], ErrorResponse{
				Type:    string(kind),
				Code:    sentinel.Error(),
				Message: sentinel.Error(),
			})
		}
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Type:    string(domain.KindInternal),
		Code:    "internal_error",
		Message: "an internal error occurred",
	})
}

// NewValidationError writes a validation_error envelope directly, for
// request-shape failures caught before reaching the service layer
// (malformed JSON, validator.v10 tag failures).
func NewValidationError(c echo.Context, message string, details map[string]interface{}) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Type:    string(domain.KindValidation),
		Code:    "validation_error",
		Message: message,
		Details: details,
	})
}
