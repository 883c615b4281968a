// Package gateway provides the concrete domain.PaymentGateway this facade
// runs against outside of tests. No payment processor SDK appears anywhere
// in the retrieval pack, so this simulates authorize-and-capture
// deterministically rather than reaching for a vendor client with no
// grounding.
package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// Simulated always approves. It exists so cmd/api has a real
// domain.PaymentGateway to wire without depending on an external network
// call, matching CompleteCheckout's call shape exactly.
type Simulated struct{}

func (Simulated) AuthorizeAndCapture(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, currency string) (domain.PaymentGatewayResult, error) {
	return domain.PaymentGatewayResult{
		Approved:         true,
		GatewayReference: "sim-" + uuid.New().String(),
	}, nil
}
