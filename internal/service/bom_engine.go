package service

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// activeBomCacheSize bounds the per-explosion memoization of "active BOM
// header for item X" lookups. A single explosion rarely touches more than
// a few hundred distinct items even at depth 32, so this is generous
// headroom rather than a tight budget.
const activeBomCacheSize = 512

// BomEngine implements recursive BOM explosion with cycle detection and a
// hard depth limit, and the availability check ManufacturingEngine runs
// before committing to a work order.
type BomEngine struct {
	repo      domain.BomRepository
	inventory *InventoryService
}

func NewBomEngine(repo domain.BomRepository, inventory *InventoryService) *BomEngine {
	return &BomEngine{repo: repo, inventory: inventory}
}

// Explode flattens the BOM tree rooted at itemID into a single list of
// component requirements scaled to quantity units of the root item,
// aggregating a component across every path it appears on. A component
// requirement is itself recursively exploded if it has its own active BOM
// header (sub-assemblies), down to MaxBomDepth.
func (e *BomEngine) Explode(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) ([]domain.ComponentRequirement, error) {
	cache, err := lru.New[uuid.UUID, *domain.BomHeader](activeBomCacheSize)
	if err != nil {
		return nil, fmt.Errorf("allocate bom explosion cache: %w", err)
	}

	totals := map[uuid.UUID]*domain.ComponentRequirement{}
	visited := map[uuid.UUID]bool{itemID: true}
	path := []string{itemID.String()}

	if err := e.explode(ctx, itemID, quantity, 0, path, visited, cache, totals); err != nil {
		return nil, err
	}

	result := make([]domain.ComponentRequirement, 0, len(totals))
	for _, req := range totals {
		result = append(result, *req)
	}
	return result, nil
}

func (e *BomEngine) explode(
	ctx context.Context,
	itemID uuid.UUID,
	quantity decimal.Decimal,
	depth int,
	path []string,
	visited map[uuid.UUID]bool,
	cache *lru.Cache[uuid.UUID, *domain.BomHeader],
	totals map[uuid.UUID]*domain.ComponentRequirement,
) error {
	if depth > domain.MaxBomDepth {
		return domain.NewDomainError(domain.KindBomTooDeep, "bom_too_deep",
			fmt.Sprintf("bom explosion exceeded depth %d at path %s", domain.MaxBomDepth, strings.Join(path, " -> ")), nil)
	}

	header, ok := cache.Get(itemID)
	if !ok {
		h, err := e.repo.GetActiveHeaderForItem(ctx, itemID)
		if err != nil {
			if err == domain.ErrNoActiveBom {
				cache.Add(itemID, nil)
				return nil
			}
			return err
		}
		header = h
		cache.Add(itemID, header)
	}
	if header == nil {
		// Leaf item with no sub-assembly BOM; nothing further to explode.
		return nil
	}

	lines, err := e.repo.ListLines(ctx, header.ID)
	if err != nil {
		return err
	}

	for _, line := range lines {
		required := line.QuantityPer.Mul(quantity)

		if visited[line.ComponentItemID] {
			return domain.NewDomainError(domain.KindCircularBomReference, "circular_bom_reference",
				fmt.Sprintf("circular bom reference: %s", strings.Join(append(path, line.ComponentItemID.String()), " -> ")),
				map[string]interface{}{"path": append(append([]string{}, path...), line.ComponentItemID.String())})
		}

		if existing, ok := totals[line.ComponentItemID]; ok {
			existing.RequiredQuantity = existing.RequiredQuantity.Add(required)
		} else {
			totals[line.ComponentItemID] = &domain.ComponentRequirement{
				ItemID:           line.ComponentItemID,
				RequiredQuantity: required,
				UomCode:          line.UomCode,
			}
		}

		visited[line.ComponentItemID] = true
		err := e.explode(ctx, line.ComponentItemID, required, depth+1, append(path, line.ComponentItemID.String()), visited, cache, totals)
		visited[line.ComponentItemID] = false
		if err != nil {
			return err
		}
	}

	return nil
}

// ComponentRequirements is a convenience wrapper returning only the
// directly-flattened requirement list, without the recursive caller
// needing to know about Explode's internal caching.
func (e *BomEngine) ComponentRequirements(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) ([]domain.ComponentRequirement, error) {
	return e.Explode(ctx, itemID, quantity)
}

// ValidateAvailability explodes itemID's BOM for quantity units and checks
// every resulting component requirement against current inventory at
// locationID, fanning the checks out concurrently via
// InventoryService.BatchCheckAvailability.
func (e *BomEngine) ValidateAvailability(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, locationID string) (domain.ComponentAvailability, error) {
	requirements, err := e.Explode(ctx, itemID, quantity)
	if err != nil {
		return domain.ComponentAvailability{}, err
	}

	lines := make([]BatchCheckInput, len(requirements))
	for i, r := range requirements {
		lines[i] = BatchCheckInput{ItemID: r.ItemID, LocationID: locationID, Required: r.RequiredQuantity}
	}

	shortages, err := e.inventory.BatchCheckAvailability(ctx, lines)
	if err != nil {
		return domain.ComponentAvailability{}, err
	}

	return domain.ComponentAvailability{
		CanProduce: len(shortages) == 0,
		Shortages:  shortages,
	}, nil
}
