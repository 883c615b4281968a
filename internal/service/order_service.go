package service

import (
	"time"

	"github.com/google/uuid"

	"context"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
)

// OrderService implements the remainder of OrderEngine's surface once an
// order exists: status transitions and shipment tracking updates. Checkout
// itself lives in CheckoutService; the two together form OrderEngine.
type OrderService struct {
	repo       domain.OrderRepository
	inventory  *InventoryService
	locationID string
	publisher  eventbus.Publisher
}

func NewOrderService(repo domain.OrderRepository, inventory *InventoryService, locationID string, publisher eventbus.Publisher) *OrderService {
	if publisher == nil {
		publisher = eventbus.NoOpPublisher{}
	}
	return &OrderService{repo: repo, inventory: inventory, locationID: locationID, publisher: publisher}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, []*domain.OrderItem, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// Transition moves an order to a new status if the transition is legal per
// domain.CanTransitionOrder, under an optimistic version check. The
// inventory settlement a transition implies (consuming the sales allocation
// on Shipped, releasing it on Cancelled) is posted as one atomic BatchApply
// batch BEFORE the order's own status row commits, so a mid-batch failure
// leaves the order exactly where it was instead of Shipped with only some
// lines consumed.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	preview, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionOrder(preview.Status, to) {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_order_transition",
			string(preview.Status)+" cannot transition to "+string(to), nil)
	}

	switch to {
	case domain.OrderShipped:
		if err := s.settleOrderItems(ctx, preview, domain.TxnSalesShip); err != nil {
			return nil, err
		}
	case domain.OrderCancelled:
		if err := s.releaseOrderItems(ctx, preview); err != nil {
			return nil, err
		}
	}

	var order *domain.Order
	from := domain.OrderStatus("")

	err = s.repo.WithTx(ctx, func(tx domain.Tx) error {
		o, err := s.repo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionOrder(o.Status, to) {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_order_transition",
				string(o.Status)+" cannot transition to "+string(to), nil)
		}
		from = o.Status
		expectedVersion := o.Version
		o.Status = to
		o.Version++
		o.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, o, expectedVersion); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, eventbus.OrderStatusChanged(orderID.String(), string(from), string(to), time.Now()))
	return order, nil
}

// settleOrderItems posts a sales-ship consumption for every order line in
// one BatchApply call, used when an order ships and its earlier sales
// allocation is consumed.
func (s *OrderService) settleOrderItems(ctx context.Context, order *domain.Order, txnType domain.TransactionType) error {
	if s.inventory == nil {
		return nil
	}
	items, err := s.repo.ListItems(ctx, order.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	orderID := order.ID
	refType := "order"
	inputs := make([]ApplyInput, len(items))
	for i, item := range items {
		inputs[i] = ApplyInput{
			ItemID: item.ProductVariantID, LocationID: s.locationID,
			TransactionType: txnType,
			DeltaOnHand:     item.Quantity.Neg(),
			DeltaAllocated:  item.Quantity.Neg(),
			ReferenceType:   &refType,
			ReferenceID:     &orderID,
		}
	}
	_, err = s.inventory.BatchApply(ctx, inputs)
	return err
}

// releaseOrderItems reverses the sales allocation taken at checkout
// completion when an order is cancelled before it ships, in one BatchApply
// call across every line.
func (s *OrderService) releaseOrderItems(ctx context.Context, order *domain.Order) error {
	if s.inventory == nil {
		return nil
	}
	items, err := s.repo.ListItems(ctx, order.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	orderID := order.ID
	refType := "order"
	inputs := make([]ApplyInput, len(items))
	for i, item := range items {
		inputs[i] = ApplyInput{
			ItemID: item.ProductVariantID, LocationID: s.locationID,
			TransactionType: domain.TxnSalesRelease,
			DeltaAllocated:  item.Quantity.Neg(),
			ReferenceType:   &refType,
			ReferenceID:     &orderID,
		}
	}
	_, err = s.inventory.BatchApply(ctx, inputs)
	return err
}

// Return transitions a Delivered order to Returned and marks its payment
// refunded. A return is a business outcome recorded on the order, not a
// new monetary movement this core settles itself.
func (s *OrderService) Return(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.Transition(ctx, orderID, domain.OrderReturned)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(tx domain.Tx) error {
		o, err := s.repo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		expectedVersion := o.Version
		o.PaymentStatus = domain.PaymentRefunded
		o.Version++
		o.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, o, expectedVersion); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateShipmentTracking records a carrier and tracking number once a
// pending shipment actually ships, and advances the shipment's own status.
func (s *OrderService) UpdateShipmentTracking(ctx context.Context, orderID uuid.UUID, carrier, trackingNumber string, status domain.ShipmentStatus) error {
	shipment, err := s.repo.GetShipmentByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	shipment.Carrier = &carrier
	shipment.TrackingNumber = &trackingNumber
	shipment.Status = status
	shipment.UpdatedAt = time.Now()
	if err := s.repo.UpdateShipment(ctx, shipment); err != nil {
		return err
	}

	now := time.Now()
	_ = s.publisher.Publish(ctx, eventbus.ShipmentCreated(shipment.ID.String(), orderID.String(), trackingNumber, now))
	return nil
}
