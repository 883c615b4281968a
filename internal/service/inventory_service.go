package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
)

// InventoryService implements InventoryCore: the authoritative
// on_hand/allocated/available balance model and its append-only journal.
// Every mutating primitive runs inside a single database transaction that
// locks the balance row, applies the delta, writes the journal row, and
// updates the balance under an optimistic version check.
type InventoryService struct {
	repo      domain.InventoryRepository
	publisher eventbus.Publisher
}

func NewInventoryService(repo domain.InventoryRepository, publisher eventbus.Publisher) *InventoryService {
	if publisher == nil {
		publisher = eventbus.NoOpPublisher{}
	}
	return &InventoryService{repo: repo, publisher: publisher}
}

// ApplyInput describes one journal posting to make against a balance.
type ApplyInput struct {
	ItemID          uuid.UUID
	LocationID      string
	TransactionType domain.TransactionType
	DeltaOnHand     decimal.Decimal
	DeltaAllocated  decimal.Decimal
	Reason          *domain.AdjustmentReason
	ReferenceType   *string
	ReferenceID     *uuid.UUID
	Notes           *string
	TenantID        *string
}

// applyInTx posts one journal entry against the caller's already-open
// transaction: lock the balance for update, reject if on_hand or allocated
// would go negative, write the journal row, and persist the updated balance
// under its current version. apply and BatchApply both delegate here so a
// multi-line caller can post every line through one shared transaction
// instead of one transaction per line.
func (s *InventoryService) applyInTx(ctx context.Context, tx domain.Tx, in ApplyInput) (*domain.InventoryBalance, error) {
	balance, err := s.repo.GetBalanceForUpdate(ctx, tx, in.ItemID, in.LocationID)
	if err != nil {
		return nil, err
	}

	newOnHand := balance.OnHand.Add(in.DeltaOnHand)
	newAllocated := balance.Allocated.Add(in.DeltaAllocated)

	if newOnHand.IsNegative() {
		return nil, domain.NewDomainError(domain.KindInsufficientStock, "insufficient_on_hand",
			fmt.Sprintf("operation would drive on_hand to %s for item %s at %s", newOnHand, in.ItemID, in.LocationID), nil)
	}
	if newAllocated.IsNegative() {
		return nil, domain.NewDomainError(domain.KindInsufficientStock, "insufficient_allocated",
			fmt.Sprintf("operation would drive allocated to %s for item %s at %s", newAllocated, in.ItemID, in.LocationID), nil)
	}
	if newAllocated.GreaterThan(newOnHand) {
		return nil, domain.NewDomainError(domain.KindInsufficientStock, "allocated_exceeds_on_hand",
			"allocated quantity may never exceed on_hand", nil)
	}

	txn := &domain.InventoryTransaction{
		ID:              uuid.New(),
		ItemID:          in.ItemID,
		LocationID:      in.LocationID,
		TransactionType: in.TransactionType,
		DeltaOnHand:     in.DeltaOnHand,
		DeltaAllocated:  in.DeltaAllocated,
		Reason:          in.Reason,
		ReferenceType:   in.ReferenceType,
		ReferenceID:     in.ReferenceID,
		Notes:           in.Notes,
		TenantID:        in.TenantID,
		CreatedAt:       time.Now(),
	}
	if err := s.repo.InsertTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}

	expectedVersion := balance.Version
	balance.OnHand = newOnHand
	balance.Allocated = newAllocated
	balance.Version++
	balance.UpdatedAt = txn.CreatedAt

	if err := s.repo.UpdateBalance(ctx, tx, balance, expectedVersion); err != nil {
		return nil, err
	}

	return balance, nil
}

// apply is the shared core every named single-line primitive below
// delegates to: run applyInTx inside its own transaction and publish an
// inventory-movement event after that transaction commits.
func (s *InventoryService) apply(ctx context.Context, in ApplyInput) (*domain.InventoryBalance, error) {
	var result *domain.InventoryBalance

	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		b, err := s.applyInTx(ctx, tx, in)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, in)
	return result, nil
}

// BatchApply posts every line in ins inside a single database transaction:
// if any line fails (insufficient stock, a concurrent modification of a
// balance row, a bad item/location pair), the whole batch rolls back and no
// line's balance or journal row is left mutated. Events are published one
// per line, only after the shared transaction commits, matching apply's
// commit-then-publish ordering. A concurrent-modification error is returned
// to the caller as is; neither BatchApply nor apply retries the transaction.
func (s *InventoryService) BatchApply(ctx context.Context, ins []ApplyInput) ([]*domain.InventoryBalance, error) {
	if len(ins) == 0 {
		return nil, nil
	}

	results := make([]*domain.InventoryBalance, len(ins))
	err := s.repo.WithTx(ctx, func(tx domain.Tx) error {
		for i, in := range ins {
			b, err := s.applyInTx(ctx, tx, in)
			if err != nil {
				return err
			}
			results[i] = b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, in := range ins {
		s.publishMovement(ctx, in)
	}
	return results, nil
}

func (s *InventoryService) publishMovement(ctx context.Context, in ApplyInput) {
	evt := eventbus.InventoryMovement(eventTypeForTransaction(in.TransactionType), in.ItemID.String(), in.LocationID,
		string(in.TransactionType), in.DeltaOnHand.String(), in.DeltaAllocated.String(),
		derefStr(in.ReferenceType), derefUUID(in.ReferenceID), time.Now())
	_ = s.publisher.Publish(ctx, evt)
}

func eventTypeForTransaction(t domain.TransactionType) eventbus.EventType {
	switch t {
	case domain.TxnSalesAllocation, domain.TxnManufacturingReserve:
		return eventbus.EventInventoryReserved
	case domain.TxnSalesRelease, domain.TxnManufacturingRelease:
		return eventbus.EventInventoryReleased
	case domain.TxnSalesShip, domain.TxnManufacturingConsume:
		return eventbus.EventInventoryConsumed
	case domain.TxnManufacturingProduce:
		return eventbus.EventInventoryProduced
	default:
		return eventbus.EventInventoryAdjusted
	}
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefUUID(p *uuid.UUID) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// Adjust posts a manual balance correction (cycle count, damage, shrinkage,
// correction, reclassification) directly against on_hand.
func (s *InventoryService) Adjust(ctx context.Context, itemID uuid.UUID, locationID string, delta decimal.Decimal, reason domain.AdjustmentReason, notes *string, tenantID *string) (*domain.InventoryBalance, error) {
	return s.apply(ctx, ApplyInput{
		ItemID: itemID, LocationID: locationID,
		TransactionType: domain.TxnAdjustment,
		DeltaOnHand:     delta,
		Reason:          &reason,
		Notes:           notes,
		TenantID:        tenantID,
	})
}

// Reserve increases allocated without changing on_hand, the soft hold a
// cart checkout or work order creation takes before consumption. Callers
// supply the closed-enum txnType (SalesAllocation vs ManufacturingReserve)
// appropriate to the aggregate taking the hold.
func (s *InventoryService) Reserve(ctx context.Context, itemID uuid.UUID, locationID string, qty decimal.Decimal, txnType domain.TransactionType, refType string, refID uuid.UUID) (*domain.InventoryBalance, error) {
	return s.apply(ctx, ApplyInput{
		ItemID: itemID, LocationID: locationID,
		TransactionType: txnType,
		DeltaAllocated:  qty,
		ReferenceType:   &refType,
		ReferenceID:     &refID,
	})
}

// Release reverses a prior Reserve, freeing allocated quantity without
// touching on_hand (cart abandonment, work order cancellation).
func (s *InventoryService) Release(ctx context.Context, itemID uuid.UUID, locationID string, qty decimal.Decimal, txnType domain.TransactionType, refType string, refID uuid.UUID) (*domain.InventoryBalance, error) {
	return s.apply(ctx, ApplyInput{
		ItemID: itemID, LocationID: locationID,
		TransactionType: txnType,
		DeltaAllocated:  qty.Neg(),
		ReferenceType:   &refType,
		ReferenceID:     &refID,
	})
}

// Consume removes both on_hand and allocated together: a reservation being
// fulfilled (order shipped, work order consuming components).
func (s *InventoryService) Consume(ctx context.Context, itemID uuid.UUID, locationID string, qty decimal.Decimal, txnType domain.TransactionType, refType string, refID uuid.UUID) (*domain.InventoryBalance, error) {
	return s.apply(ctx, ApplyInput{
		ItemID: itemID, LocationID: locationID,
		TransactionType: txnType,
		DeltaOnHand:     qty.Neg(),
		DeltaAllocated:  qty.Neg(),
		ReferenceType:   &refType,
		ReferenceID:     &refID,
	})
}

// Produce adds on_hand without touching allocated: a purchase receipt or a
// completed work order's finished-goods posting.
func (s *InventoryService) Produce(ctx context.Context, itemID uuid.UUID, locationID string, qty decimal.Decimal, txnType domain.TransactionType, refType string, refID uuid.UUID) (*domain.InventoryBalance, error) {
	return s.apply(ctx, ApplyInput{
		ItemID: itemID, LocationID: locationID,
		TransactionType: txnType,
		DeltaOnHand:     qty,
		ReferenceType:   &refType,
		ReferenceID:     &refID,
	})
}

// CheckAvailability reports the available quantity (on_hand - allocated)
// for one item at one location, read without a row lock.
func (s *InventoryService) CheckAvailability(ctx context.Context, itemID uuid.UUID, locationID string) (decimal.Decimal, error) {
	balance, err := s.repo.GetBalance(ctx, itemID, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Available(), nil
}

// BatchCheckInput is one line of a BatchCheckAvailability call.
type BatchCheckInput struct {
	ItemID     uuid.UUID
	LocationID string
	Required   decimal.Decimal
}

// BatchCheckAvailability fans out availability reads across an errgroup so
// ManufacturingEngine and BomEngine can validate many component lines
// concurrently before entering a reservation transaction, instead of
// checking each one serially.
func (s *InventoryService) BatchCheckAvailability(ctx context.Context, lines []BatchCheckInput) ([]domain.ComponentShortage, error) {
	shortages := make([]domain.ComponentShortage, len(lines))
	found := make([]bool, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			available, err := s.CheckAvailability(gctx, line.ItemID, line.LocationID)
			if err != nil {
				return err
			}
			if available.LessThan(line.Required) {
				shortages[i] = domain.ComponentShortage{ItemID: line.ItemID, Required: line.Required, Available: available}
				found[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]domain.ComponentShortage, 0, len(lines))
	for i, ok := range found {
		if ok {
			result = append(result, shortages[i])
		}
	}
	return result, nil
}
