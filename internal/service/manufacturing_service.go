package service

import (
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
)

// ManufacturingService implements ManufacturingEngine: the work order
// lifecycle tied to BomEngine's explosion/availability check and
// InventoryCore's reservation/consumption/production primitives.
type ManufacturingService struct {
	repo      domain.WorkOrderRepository
	bom       *BomEngine
	inventory *InventoryService
	publisher eventbus.Publisher
}

func NewManufacturingService(repo domain.WorkOrderRepository, bom *BomEngine, inventory *InventoryService, publisher eventbus.Publisher) *ManufacturingService {
	if publisher == nil {
		publisher = eventbus.NoOpPublisher{}
	}
	return &ManufacturingService{repo: repo, bom: bom, inventory: inventory, publisher: publisher}
}

// CreateWorkOrder validates component availability for the full BOM
// explosion before reserving anything. When every component is available
// the work order is created Ready with every requirement reserved in the
// same pass; when any component falls short, the work order is still
// created — in PendingMaterials, with no reservations made — and every
// shortage is surfaced as a ComponentShortageDetected event so a caller
// can react (trigger a PO, notify a planner) without polling or losing
// the demand that was being planned.
func (s *ManufacturingService) CreateWorkOrder(ctx context.Context, itemID, bomHeaderID uuid.UUID, locationID string, quantity decimal.Decimal, tenantID *string) (*domain.WorkOrder, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewDomainError(domain.KindValidation, "invalid_quantity", "planned quantity must be positive", nil)
	}

	availability, err := s.bom.ValidateAvailability(ctx, itemID, quantity, locationID)
	if err != nil {
		return nil, err
	}

	woID := uuid.New()
	now := time.Now()
	status := domain.WoReady
	if !availability.CanProduce {
		status = domain.WoPendingMaterials
	}

	wo := &domain.WorkOrder{
		ID:              woID,
		WoNumber:        fmt.Sprintf("WO-%s", strings.ToUpper(woID.String()[:8])),
		ItemID:          itemID,
		BomHeaderID:     bomHeaderID,
		LocationID:      locationID,
		QuantityPlanned: quantity,
		Status:          status,
		TenantID:        tenantID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Reserve every component requirement atomically before the work order
	// row itself exists, so a mid-batch shortage never leaves a Ready work
	// order with only some of its components held.
	if availability.CanProduce {
		if err := s.reserveRequirements(ctx, wo); err != nil {
			return nil, err
		}
	}

	if err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		return s.repo.Create(ctx, tx, wo)
	}); err != nil {
		return nil, err
	}

	if !availability.CanProduce {
		for _, shortage := range availability.Shortages {
			_ = s.publisher.Publish(ctx, eventbus.ComponentShortageDetected(
				woID.String(), shortage.ItemID.String(), shortage.Required.String(), shortage.Available.String(), now))
		}
	}

	_ = s.publisher.Publish(ctx, eventbus.WorkOrderStatusChanged(eventbus.EventWorkOrderCreated, woID.String(), string(status), now))
	return wo, nil
}

// reserveRequirements explodes the work order's BOM and posts a
// ManufacturingReserve allocation for every component in one BatchApply
// call, so the whole set succeeds or fails together.
func (s *ManufacturingService) reserveRequirements(ctx context.Context, wo *domain.WorkOrder) error {
	requirements, err := s.bom.ComponentRequirements(ctx, wo.ItemID, wo.QuantityPlanned)
	if err != nil {
		return err
	}
	if len(requirements) == 0 {
		return nil
	}
	woID := wo.ID
	refType := "work_order"
	inputs := make([]ApplyInput, len(requirements))
	for i, req := range requirements {
		inputs[i] = ApplyInput{
			ItemID: req.ItemID, LocationID: wo.LocationID,
			TransactionType: domain.TxnManufacturingReserve,
			DeltaAllocated:  req.RequiredQuantity,
			ReferenceType:   &refType,
			ReferenceID:     &woID,
		}
	}
	_, err = s.inventory.BatchApply(ctx, inputs)
	return err
}

// MaterialsAvailable re-validates a PendingMaterials work order's component
// availability and, if every requirement now clears, reserves it and moves
// the work order to Ready.
func (s *ManufacturingService) MaterialsAvailable(ctx context.Context, woID uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WoPendingMaterials {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
			"work order is not awaiting materials", nil)
	}

	availability, err := s.bom.ValidateAvailability(ctx, wo.ItemID, wo.QuantityPlanned, wo.LocationID)
	if err != nil {
		return nil, err
	}
	if !availability.CanProduce {
		return nil, domain.NewDomainError(domain.KindInsufficientStock, "insufficient_components",
			"insufficient component availability", shortageDetails(availability.Shortages))
	}

	if err := s.reserveRequirements(ctx, wo); err != nil {
		return nil, err
	}

	return s.transition(ctx, woID, domain.WoReady, eventbus.EventWorkOrderMaterialsAvailable)
}

func shortageDetails(shortages []domain.ComponentShortage) map[string]interface{} {
	rows := make([]map[string]interface{}, len(shortages))
	for i, s := range shortages {
		rows[i] = map[string]interface{}{
			"item_id":   s.ItemID.String(),
			"required":  s.Required.String(),
			"available": s.Available.String(),
		}
	}
	return map[string]interface{}{"shortages": rows}
}

// Start transitions a work order from Ready to InProgress, consuming every
// reserved component: this pays off the reservation taken at creation by
// moving it out of both on_hand and allocated with one ManufacturingConsume
// posting per requirement, all in a single BatchApply call.
func (s *ManufacturingService) Start(ctx context.Context, woID uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WoReady {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
			"work order must be ready to start", nil)
	}

	requirements, err := s.bom.ComponentRequirements(ctx, wo.ItemID, wo.QuantityPlanned)
	if err != nil {
		return nil, err
	}
	if err := s.consumeRequirements(ctx, wo, requirements, decimal.NewFromInt(1)); err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := s.transitionWith(ctx, woID, domain.WoInProgress, eventbus.EventWorkOrderStarted, func(fresh *domain.WorkOrder) {
		fresh.ActualStart = &now
	})
	return result, err
}

// consumeRequirements posts a ManufacturingConsume movement for every
// requirement, scaled by proportion, in one BatchApply call.
func (s *ManufacturingService) consumeRequirements(ctx context.Context, wo *domain.WorkOrder, requirements []domain.ComponentRequirement, proportion decimal.Decimal) error {
	woID := wo.ID
	refType := "work_order"
	var inputs []ApplyInput
	for _, req := range requirements {
		consumeQty := req.RequiredQuantity.Mul(proportion)
		if consumeQty.IsZero() {
			continue
		}
		inputs = append(inputs, ApplyInput{
			ItemID: req.ItemID, LocationID: wo.LocationID,
			TransactionType: domain.TxnManufacturingConsume,
			DeltaOnHand:     consumeQty.Neg(),
			DeltaAllocated:  consumeQty.Neg(),
			ReferenceType:   &refType,
			ReferenceID:     &woID,
		})
	}
	if len(inputs) == 0 {
		return nil
	}
	_, err := s.inventory.BatchApply(ctx, inputs)
	return err
}

// Cancel is permitted only before a work order has started (PendingMaterials
// or Ready); it releases every component reservation held so far. A work
// order that already started is rejected by domain.CanTransitionWorkOrder.
func (s *ManufacturingService) Cancel(ctx context.Context, woID uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionWorkOrder(wo.Status, domain.WoCancelled) {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
			string(wo.Status)+" cannot transition to "+string(domain.WoCancelled), nil)
	}

	if wo.Status == domain.WoReady {
		requirements, err := s.bom.ComponentRequirements(ctx, wo.ItemID, wo.QuantityPlanned)
		if err != nil {
			return nil, err
		}
		if len(requirements) > 0 {
			refType := "work_order"
			inputs := make([]ApplyInput, len(requirements))
			for i, req := range requirements {
				inputs[i] = ApplyInput{
					ItemID: req.ItemID, LocationID: wo.LocationID,
					TransactionType: domain.TxnManufacturingRelease,
					DeltaAllocated:  req.RequiredQuantity.Neg(),
					ReferenceType:   &refType,
					ReferenceID:     &woID,
				}
			}
			if _, err := s.inventory.BatchApply(ctx, inputs); err != nil {
				return nil, err
			}
		}
	}

	return s.transition(ctx, woID, domain.WoCancelled, eventbus.EventWorkOrderCancelled)
}

// Hold suspends a Ready or InProgress work order without releasing its
// component reservations, for a line stoppage or quality hold, remembering
// the prior status so Resume can restore it.
func (s *ManufacturingService) Hold(ctx context.Context, woID uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	prior := wo.Status
	return s.transitionWith(ctx, woID, domain.WoOnHold, eventbus.EventWorkOrderHeld, func(fresh *domain.WorkOrder) {
		fresh.HeldFrom = &prior
	})
}

// Resume moves a held work order back to the status Hold suspended it from.
func (s *ManufacturingService) Resume(ctx context.Context, woID uuid.UUID) (*domain.WorkOrder, error) {
	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WoOnHold || wo.HeldFrom == nil {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
			"work order is not on hold", nil)
	}
	restore := *wo.HeldFrom
	return s.transitionWith(ctx, woID, restore, eventbus.EventWorkOrderResumed, func(fresh *domain.WorkOrder) {
		fresh.HeldFrom = nil
	})
}

// Complete posts qty of finished goods onto the produced item's on_hand
// balance and consumes the component requirements proportional to qty,
// then either marks the work order Completed (the cumulative produced
// quantity has reached QuantityPlanned; over-production is permitted) or
// PartiallyCompleted, allowing a later call to finish the run. Requires the
// work order to be InProgress or already PartiallyCompleted.
func (s *ManufacturingService) Complete(ctx context.Context, woID uuid.UUID, qty decimal.Decimal) (*domain.WorkOrder, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewDomainError(domain.KindValidation, "invalid_quantity", "completed quantity must be positive", nil)
	}

	wo, err := s.repo.GetByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	if wo.Status != domain.WoInProgress && wo.Status != domain.WoPartiallyCompleted {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
			"work order must be in progress to complete", nil)
	}

	proportion := qty.Div(wo.QuantityPlanned)
	requirements, err := s.bom.ComponentRequirements(ctx, wo.ItemID, wo.QuantityPlanned)
	if err != nil {
		return nil, err
	}

	refType := "work_order"
	var inputs []ApplyInput
	for _, req := range requirements {
		consumeQty := req.RequiredQuantity.Mul(proportion)
		if consumeQty.IsZero() {
			continue
		}
		inputs = append(inputs, ApplyInput{
			ItemID: req.ItemID, LocationID: wo.LocationID,
			TransactionType: domain.TxnManufacturingConsume,
			DeltaOnHand:     consumeQty.Neg(),
			DeltaAllocated:  consumeQty.Neg(),
			ReferenceType:   &refType,
			ReferenceID:     &woID,
		})
	}
	inputs = append(inputs, ApplyInput{
		ItemID: wo.ItemID, LocationID: wo.LocationID,
		TransactionType: domain.TxnManufacturingProduce,
		DeltaOnHand:     qty,
		ReferenceType:   &refType,
		ReferenceID:     &woID,
	})

	if _, err := s.inventory.BatchApply(ctx, inputs); err != nil {
		return nil, err
	}

	return s.finishTransition(ctx, wo, qty)
}

func (s *ManufacturingService) finishTransition(ctx context.Context, wo *domain.WorkOrder, qtyThisCall decimal.Decimal) (*domain.WorkOrder, error) {
	var result *domain.WorkOrder
	var to domain.WorkOrderStatus

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		fresh, err := s.repo.GetForUpdate(ctx, tx, wo.ID)
		if err != nil {
			return err
		}
		cumulative := fresh.QuantityProduced.Add(qtyThisCall)
		to = domain.WoPartiallyCompleted
		if cumulative.GreaterThanOrEqual(fresh.QuantityPlanned) {
			to = domain.WoCompleted
		}
		if !domain.CanTransitionWorkOrder(fresh.Status, to) {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
				string(fresh.Status)+" cannot transition to "+string(to), nil)
		}
		expectedVersion := fresh.Version
		fresh.Status = to
		fresh.QuantityProduced = cumulative
		fresh.Version++
		fresh.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, fresh, expectedVersion); err != nil {
			return err
		}
		result = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := eventbus.EventWorkOrderPartiallyCompleted
	if to == domain.WoCompleted {
		eventType = eventbus.EventWorkOrderCompleted
	}
	_ = s.publisher.Publish(ctx, eventbus.WorkOrderStatusChanged(eventType, wo.ID.String(), string(to), time.Now()))
	return result, nil
}

func (s *ManufacturingService) transition(ctx context.Context, woID uuid.UUID, to domain.WorkOrderStatus, eventType eventbus.EventType) (*domain.WorkOrder, error) {
	var result *domain.WorkOrder

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		wo, err := s.repo.GetForUpdate(ctx, tx, woID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionWorkOrder(wo.Status, to) {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
				string(wo.Status)+" cannot transition to "+string(to), nil)
		}
		expectedVersion := wo.Version
		wo.Status = to
		wo.Version++
		wo.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, wo, expectedVersion); err != nil {
			return err
		}
		result = wo
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, eventbus.WorkOrderStatusChanged(eventType, woID.String(), string(to), time.Now()))
	return result, nil
}

// transitionWith is transition plus a mutator applied to the locked row
// before persisting, for transitions that stamp an extra field (ActualStart
// on Start, HeldFrom on Hold/Resume) alongside the status change.
func (s *ManufacturingService) transitionWith(ctx context.Context, woID uuid.UUID, to domain.WorkOrderStatus, eventType eventbus.EventType, mutate func(*domain.WorkOrder)) (*domain.WorkOrder, error) {
	var result *domain.WorkOrder

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		wo, err := s.repo.GetForUpdate(ctx, tx, woID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionWorkOrder(wo.Status, to) {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "invalid_wo_transition",
				string(wo.Status)+" cannot transition to "+string(to), nil)
		}
		expectedVersion := wo.Version
		wo.Status = to
		mutate(wo)
		wo.Version++
		wo.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, tx, wo, expectedVersion); err != nil {
			return err
		}
		result = wo
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, eventbus.WorkOrderStatusChanged(eventType, woID.String(), string(to), time.Now()))
	return result, nil
}
