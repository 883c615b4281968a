package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
)

// ProcurementService implements ProcurementEngine: the purchase order
// lifecycle and goods-receipt posting against InventoryCore, plus
// return-to-vendor (spec.md §4.4's "mirrors receipt with opposite sign").
type ProcurementService struct {
	repo      domain.PurchaseOrderRepository
	inventory *InventoryService
	publisher eventbus.Publisher
}

func NewProcurementService(repo domain.PurchaseOrderRepository, inventory *InventoryService, publisher eventbus.Publisher) *ProcurementService {
	if publisher == nil {
		publisher = eventbus.NoOpPublisher{}
	}
	return &ProcurementService{repo: repo, inventory: inventory, publisher: publisher}
}

type CreatePurchaseOrderLine struct {
	ItemID          uuid.UUID
	QuantityOrdered decimal.Decimal
	UnitCost        decimal.Decimal
}

func (s *ProcurementService) CreatePurchaseOrder(ctx context.Context, vendorID uuid.UUID, locationID, currency string, lines []CreatePurchaseOrderLine, tenantID *string) (*domain.PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, domain.NewDomainError(domain.KindValidation, "po_requires_lines", "purchase order must have at least one line", nil)
	}

	poID := uuid.New()
	now := time.Now()
	po := &domain.PurchaseOrder{
		ID:         poID,
		PoNumber:   fmt.Sprintf("PO-%s", strings.ToUpper(poID.String()[:8])),
		VendorID:   vendorID,
		Status:     domain.PoDraft,
		Currency:   currency,
		LocationID: locationID,
		TenantID:   tenantID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	poLines := make([]*domain.PoLine, len(lines))
	for i, line := range lines {
		if line.QuantityOrdered.LessThanOrEqual(decimal.Zero) {
			return nil, domain.NewDomainError(domain.KindValidation, "invalid_quantity", "ordered quantity must be positive", nil)
		}
		poLines[i] = &domain.PoLine{
			ID:              uuid.New(),
			PurchaseOrderID: poID,
			LineNumber:      int64(i + 1),
			ItemID:          line.ItemID,
			QuantityOrdered: line.QuantityOrdered,
			UnitCost:        line.UnitCost,
		}
	}

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		return s.repo.Create(ctx, tx, po, poLines)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *ProcurementService) Transition(ctx context.Context, poID uuid.UUID, to domain.PurchaseOrderStatus) (*domain.PurchaseOrder, error) {
	var po *domain.PurchaseOrder

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		p, err := s.repo.GetForUpdate(ctx, tx, poID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionPurchaseOrder(p.Status, to) {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_po_transition",
				string(p.Status)+" cannot transition to "+string(to), nil)
		}
		expectedVersion := p.Version
		p.Status = to
		p.Version++
		p.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, p, expectedVersion); err != nil {
			return err
		}
		po = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, eventbus.PurchaseOrderStatusChanged(eventbus.EventPurchaseOrderIssued, poID.String(), string(to), time.Now()))
	return po, nil
}

// ReceiptLineInput is one line of a goods receipt being posted.
type ReceiptLineInput struct {
	PoLineID         uuid.UUID
	QuantityReceived decimal.Decimal
}

// PostReceipt posts a goods receipt against an Issued or
// PartiallyReceived purchase order: for each line, validates the received
// quantity does not exceed what remains on order, posts a
// PURCHASE_RECEIPT inventory transaction increasing on_hand, and advances
// the PO to PartiallyReceived or Received depending on whether every line
// is now fully received.
func (s *ProcurementService) PostReceipt(ctx context.Context, poID uuid.UUID, lines []ReceiptLineInput, notes *string) (*domain.PoReceiptHeader, error) {
	return s.postMovement(ctx, poID, lines, notes, false)
}

// ReturnToVendor posts a return against previously received quantity,
// mirroring PostReceipt with the opposite sign: it decreases on_hand via a
// PURCHASE_RETURN transaction and increases QuantityReturned instead of
// QuantityReceived. It is accepted on an Issued, PartiallyReceived or
// Received purchase order and leaves the PO's status unchanged.
func (s *ProcurementService) ReturnToVendor(ctx context.Context, poID uuid.UUID, lines []ReceiptLineInput, notes *string) (*domain.PoReceiptHeader, error) {
	return s.postMovement(ctx, poID, lines, notes, true)
}

func (s *ProcurementService) postMovement(ctx context.Context, poID uuid.UUID, lines []ReceiptLineInput, notes *string, isReturn bool) (*domain.PoReceiptHeader, error) {
	po, err := s.repo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Status != domain.PoIssued && po.Status != domain.PoPartiallyReceived && !(isReturn && po.Status == domain.PoReceived) {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "po_not_receivable",
			"purchase order is not in a receivable state", nil)
	}

	headerID := uuid.New()
	now := time.Now()
	header := &domain.PoReceiptHeader{ID: headerID, PurchaseOrderID: poID, ReceivedAt: now, Notes: notes}
	receiptLines := make([]*domain.PoReceiptLine, len(lines))
	itemIDByLine := make(map[uuid.UUID]uuid.UUID, len(lines))

	allLinesComplete := true

	err = s.repo.WithTx(ctx, func(tx domain.Tx) error {
		for i, input := range lines {
			line, err := s.repo.GetLineForUpdate(ctx, tx, input.PoLineID)
			if err != nil {
				return err
			}
			itemIDByLine[input.PoLineID] = line.ItemID

			if isReturn {
				if input.QuantityReceived.GreaterThan(line.QuantityReceived.Sub(line.QuantityReturned)) {
					return domain.NewDomainError(domain.KindValidation, "return_exceeds_received",
						"return quantity exceeds received quantity", nil)
				}
				line.QuantityReturned = line.QuantityReturned.Add(input.QuantityReceived)
			} else {
				if input.QuantityReceived.GreaterThan(line.RemainingToReceive()) {
					return domain.NewDomainError(domain.KindValidation, "receipt_exceeds_ordered",
						"receipt quantity exceeds remaining ordered quantity", nil)
				}
				line.QuantityReceived = line.QuantityReceived.Add(input.QuantityReceived)
			}

			if err := s.repo.UpdateLine(ctx, tx, line); err != nil {
				return err
			}

			receiptLines[i] = &domain.PoReceiptLine{
				ID:               uuid.New(),
				ReceiptHeaderID:  headerID,
				PoLineID:         input.PoLineID,
				QuantityReceived: input.QuantityReceived,
				Returned:         isReturn,
			}
		}
		return s.repo.CreateReceipt(ctx, tx, header, receiptLines)
	})
	if err != nil {
		return nil, err
	}

	poLines, err := s.repo.ListLines(ctx, poID)
	if err != nil {
		return nil, err
	}
	for _, l := range poLines {
		if l.RemainingToReceive().GreaterThan(decimal.Zero) {
			allLinesComplete = false
		}
	}

	inputs := make([]ApplyInput, len(lines))
	for i, input := range lines {
		delta := input.QuantityReceived
		txnType := domain.TxnPurchaseReceipt
		if isReturn {
			delta = delta.Neg()
			txnType = domain.TxnPurchaseReturn
		}
		inputs[i] = ApplyInput{
			ItemID:          itemIDByLine[input.PoLineID],
			LocationID:      po.LocationID,
			TransactionType: txnType,
			DeltaOnHand:     delta,
			ReferenceType:   strPtr("purchase_order"),
			ReferenceID:     &poID,
		}
	}
	if _, err := s.inventory.BatchApply(ctx, inputs); err != nil {
		return nil, err
	}

	nextStatus := domain.PoPartiallyReceived
	if allLinesComplete {
		nextStatus = domain.PoReceived
	}
	if !isReturn {
		if _, err := s.Transition(ctx, poID, nextStatus); err != nil {
			return nil, err
		}
	}

	eventType := eventbus.EventPurchaseOrderReceived
	if isReturn {
		eventType = eventbus.EventPurchaseOrderReturned
	}
	_ = s.publisher.Publish(ctx, eventbus.PurchaseOrderStatusChanged(eventType, poID.String(), string(nextStatus), now))

	return header, nil
}

func strPtr(s string) *string { return &s }
