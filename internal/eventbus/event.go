package eventbus

import (
	"encoding/json"
	"time"
)

// EventType identifies what happened to an aggregate.
type EventType string

const (
	EventCheckoutStarted        EventType = "checkout_started"
	EventCheckoutCompleted      EventType = "checkout_completed"
	EventOrderCreated           EventType = "order_created"
	EventOrderStatusChanged     EventType = "order_status_changed"
	EventPaymentCaptured        EventType = "payment_captured"
	EventPaymentFailed          EventType = "payment_failed"
	EventInvoiceIssued          EventType = "invoice_issued"
	EventShipmentCreated        EventType = "shipment_created"
	EventShipmentStatusChanged  EventType = "shipment_status_changed"
	EventInventoryAdjusted      EventType = "inventory_adjusted"
	EventInventoryReserved      EventType = "inventory_reserved"
	EventInventoryReleased      EventType = "inventory_released"
	EventInventoryConsumed      EventType = "inventory_consumed"
	EventInventoryProduced      EventType = "inventory_produced"
	EventPurchaseOrderIssued    EventType = "purchase_order_issued"
	EventPurchaseOrderReceived  EventType = "purchase_order_received"
	EventPurchaseOrderReturned  EventType = "purchase_order_returned"
	EventWorkOrderCreated            EventType = "work_order_created"
	EventWorkOrderMaterialsAvailable EventType = "work_order_materials_available"
	EventWorkOrderStarted            EventType = "work_order_started"
	EventWorkOrderPartiallyCompleted EventType = "work_order_partially_completed"
	EventWorkOrderCompleted          EventType = "work_order_completed"
	EventWorkOrderCancelled          EventType = "work_order_cancelled"
	EventWorkOrderHeld               EventType = "work_order_held"
	EventWorkOrderResumed            EventType = "work_order_resumed"
	EventComponentShortage           EventType = "component_shortage_detected"
)

// AggregateType identifies the kind of entity an Event's AggregateID refers
// to. Events for the same (AggregateType, AggregateID) pair are delivered to
// every subscriber in the order they were published.
type AggregateType string

const (
	AggregateCart           AggregateType = "cart"
	AggregateCheckoutSession AggregateType = "checkout_session"
	AggregateOrder          AggregateType = "order"
	AggregatePayment        AggregateType = "payment"
	AggregateInvoice        AggregateType = "invoice"
	AggregateShipment       AggregateType = "shipment"
	AggregateInventory      AggregateType = "inventory_balance"
	AggregatePurchaseOrder  AggregateType = "purchase_order"
	AggregateWorkOrder      AggregateType = "work_order"
)

// Event is a single domain occurrence. Payload is the concrete event body
// (e.g. OrderCreatedPayload, stored by value) and is never mutated after
// publish.
type Event struct {
	Type        EventType     `json:"type"`
	Aggregate   AggregateType `json:"aggregate"`
	AggregateID string        `json:"aggregate_id"`
	Payload     interface{}   `json:"payload"`
	Timestamp   time.Time     `json:"timestamp"`
}

// NewEvent builds an Event with the given timestamp. Callers supply now
// explicitly since this package never calls time.Now() itself, keeping event
// construction deterministic and testable.
func NewEvent(eventType EventType, aggregate AggregateType, aggregateID string, payload interface{}, now time.Time) Event {
	return Event{
		Type:        eventType,
		Aggregate:   aggregate,
		AggregateID: aggregateID,
		Payload:     payload,
		Timestamp:   now,
	}
}

// ToJSON serializes the event for logging or outbound delivery.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CheckoutCompletedPayload carries the outcome of a completed checkout.
type CheckoutCompletedPayload struct {
	CartID    string `json:"cart_id"`
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

// OrderCreatedPayload carries the identity of a newly created order.
type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
}

// OrderStatusChangedPayload carries an order state transition.
type OrderStatusChangedPayload struct {
	OrderID   string `json:"order_id"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
}

// PaymentResultPayload carries the outcome of a payment authorization+capture.
type PaymentResultPayload struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Reason    string `json:"reason,omitempty"`
}

// InvoiceIssuedPayload carries the identity of a newly issued invoice.
type InvoiceIssuedPayload struct {
	InvoiceID string `json:"invoice_id"`
	OrderID   string `json:"order_id"`
}

// ShipmentPayload carries a shipment lifecycle change.
type ShipmentPayload struct {
	ShipmentID     string `json:"shipment_id"`
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Status         string `json:"status"`
}

// InventoryMovementPayload carries an inventory journal posting.
type InventoryMovementPayload struct {
	ItemID          string `json:"item_id"`
	LocationID      string `json:"location_id"`
	TransactionType string `json:"transaction_type"`
	DeltaOnHand     string `json:"delta_on_hand"`
	DeltaAllocated  string `json:"delta_allocated"`
	ReferenceType   string `json:"reference_type,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
}

// PurchaseOrderPayload carries a PO lifecycle change.
type PurchaseOrderPayload struct {
	PurchaseOrderID string `json:"purchase_order_id"`
	Status          string `json:"status"`
}

// WorkOrderPayload carries a work order lifecycle change.
type WorkOrderPayload struct {
	WorkOrderID string `json:"work_order_id"`
	Status      string `json:"status"`
}

// ComponentShortagePayload carries a single BOM-component shortfall found
// during ManufacturingEngine.CreateWorkOrder availability validation.
type ComponentShortagePayload struct {
	WorkOrderID string `json:"work_order_id"`
	ItemID      string `json:"item_id"`
	Required    string `json:"required"`
	Available   string `json:"available"`
}

func CheckoutCompleted(cartID, sessionID, orderID string, now time.Time) Event {
	return NewEvent(EventCheckoutCompleted, AggregateCheckoutSession, sessionID,
		CheckoutCompletedPayload{CartID: cartID, SessionID: sessionID, OrderID: orderID}, now)
}

func OrderCreated(orderID, orderNumber, customerID string, now time.Time) Event {
	return NewEvent(EventOrderCreated, AggregateOrder, orderID,
		OrderCreatedPayload{OrderID: orderID, OrderNumber: orderNumber, CustomerID: customerID}, now)
}

func OrderStatusChanged(orderID, from, to string, now time.Time) Event {
	return NewEvent(EventOrderStatusChanged, AggregateOrder, orderID,
		OrderStatusChangedPayload{OrderID: orderID, FromState: from, ToState: to}, now)
}

func PaymentCaptured(paymentID, orderID string, now time.Time) Event {
	return NewEvent(EventPaymentCaptured, AggregatePayment, paymentID,
		PaymentResultPayload{PaymentID: paymentID, OrderID: orderID}, now)
}

func PaymentFailed(paymentID, orderID, reason string, now time.Time) Event {
	return NewEvent(EventPaymentFailed, AggregatePayment, paymentID,
		PaymentResultPayload{PaymentID: paymentID, OrderID: orderID, Reason: reason}, now)
}

func InvoiceIssued(invoiceID, orderID string, now time.Time) Event {
	return NewEvent(EventInvoiceIssued, AggregateInvoice, invoiceID,
		InvoiceIssuedPayload{InvoiceID: invoiceID, OrderID: orderID}, now)
}

func ShipmentCreated(shipmentID, orderID, trackingNumber string, now time.Time) Event {
	return NewEvent(EventShipmentCreated, AggregateShipment, shipmentID,
		ShipmentPayload{ShipmentID: shipmentID, OrderID: orderID, TrackingNumber: trackingNumber, Status: "pending"}, now)
}

func InventoryMovement(eventType EventType, itemID, locationID, txnType, deltaOnHand, deltaAllocated, refType, refID string, now time.Time) Event {
	return NewEvent(eventType, AggregateInventory, itemID,
		InventoryMovementPayload{
			ItemID:          itemID,
			LocationID:      locationID,
			TransactionType: txnType,
			DeltaOnHand:     deltaOnHand,
			DeltaAllocated:  deltaAllocated,
			ReferenceType:   refType,
			ReferenceID:     refID,
		}, now)
}

func PurchaseOrderStatusChanged(eventType EventType, poID, status string, now time.Time) Event {
	return NewEvent(eventType, AggregatePurchaseOrder, poID,
		PurchaseOrderPayload{PurchaseOrderID: poID, Status: status}, now)
}

func WorkOrderStatusChanged(eventType EventType, workOrderID, status string, now time.Time) Event {
	return NewEvent(eventType, AggregateWorkOrder, workOrderID,
		WorkOrderPayload{WorkOrderID: workOrderID, Status: status}, now)
}

func ComponentShortageDetected(workOrderID, itemID, required, available string, now time.Time) Event {
	return NewEvent(EventComponentShortage, AggregateWorkOrder, workOrderID,
		ComponentShortagePayload{WorkOrderID: workOrderID, ItemID: itemID, Required: required, Available: available}, now)
}
