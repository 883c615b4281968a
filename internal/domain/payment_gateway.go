package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentGatewayResult is the outcome of an authorize-and-capture call.
type PaymentGatewayResult struct {
	Approved         bool
	GatewayReference string
	FailureReason    string
}

// PaymentGateway is the seam between OrderEngine and an external payment
// processor. This core implements a port only — it never talks to a real
// processor (spec.md Non-goals: "payment gateway implementation"). Callers
// invoke it outside the database transaction that creates the order, the
// same way original_source's checkout_service calls process_payment after
// building the order rows but before committing the cart status change.
type PaymentGateway interface {
	AuthorizeAndCapture(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) (PaymentGatewayResult, error)
}
