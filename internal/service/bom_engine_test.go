package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func TestExplode_SingleLevel(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	parent := uuid.New()
	screw := uuid.New()
	panel := uuid.New()
	bomRepo.SeedActiveBom(parent, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: screw, QuantityPer: decimal.NewFromInt(4), UomCode: "EA"},
		{ID: uuid.New(), ComponentItemID: panel, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})

	requirements, err := engine.Explode(context.Background(), parent, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(requirements) != 2 {
		t.Fatalf("expected 2 component requirements, got %d", len(requirements))
	}

	totals := map[uuid.UUID]decimal.Decimal{}
	for _, r := range requirements {
		totals[r.ItemID] = r.RequiredQuantity
	}
	if !totals[screw].Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected 40 screws, got %s", totals[screw])
	}
	if !totals[panel].Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 panels, got %s", totals[panel])
	}
}

func TestExplode_NestedSubassembly_AggregatesSharedComponent(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	assembly := uuid.New()
	subassembly := uuid.New()
	bolt := uuid.New()

	bomRepo.SeedActiveBom(assembly, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: subassembly, QuantityPer: decimal.NewFromInt(2), UomCode: "EA"},
		{ID: uuid.New(), ComponentItemID: bolt, QuantityPer: decimal.NewFromInt(3), UomCode: "EA"},
	})
	bomRepo.SeedActiveBom(subassembly, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: bolt, QuantityPer: decimal.NewFromInt(5), UomCode: "EA"},
	})

	requirements, err := engine.Explode(context.Background(), assembly, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	totals := map[uuid.UUID]decimal.Decimal{}
	for _, r := range requirements {
		totals[r.ItemID] = r.RequiredQuantity
	}
	// subassembly: 2 units directly, plus 2*5=10 bolts via subassembly, plus 3 direct bolts = 13
	if !totals[bolt].Equal(decimal.NewFromInt(13)) {
		t.Errorf("expected 13 bolts aggregated across both paths, got %s", totals[bolt])
	}
	if !totals[subassembly].Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2 subassemblies, got %s", totals[subassembly])
	}
}

func TestExplode_LeafItemWithNoBom(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	leaf := uuid.New()
	requirements, err := engine.Explode(context.Background(), leaf, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(requirements) != 0 {
		t.Errorf("expected no component requirements for a leaf item, got %d", len(requirements))
	}
}

func TestExplode_CircularReference_ReturnsError(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	a := uuid.New()
	b := uuid.New()
	bomRepo.SeedActiveBom(a, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: b, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})
	bomRepo.SeedActiveBom(b, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: a, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})

	_, err := engine.Explode(context.Background(), a, decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected circular reference error, got nil")
	}
	domErr, ok := err.(*domain.DomainError)
	if !ok || domErr.Kind != domain.KindCircularBomReference {
		t.Errorf("expected KindCircularBomReference, got %v", err)
	}
}

func TestValidateAvailability_ReportsShortages(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	parent := uuid.New()
	component := uuid.New()
	bomRepo.SeedActiveBom(parent, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(10), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(5), decimal.Zero)

	result, err := engine.ValidateAvailability(context.Background(), parent, decimal.NewFromInt(1), testLocation)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.CanProduce {
		t.Fatal("expected CanProduce false given insufficient component stock")
	}
	if len(result.Shortages) != 1 {
		t.Fatalf("expected 1 shortage, got %d", len(result.Shortages))
	}
	if !result.Shortages[0].Required.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected required 10, got %s", result.Shortages[0].Required)
	}
}

func TestValidateAvailability_CanProduceWhenSufficient(t *testing.T) {
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	engine := NewBomEngine(bomRepo, inventory)

	parent := uuid.New()
	component := uuid.New()
	bomRepo.SeedActiveBom(parent, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(2), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)

	result, err := engine.ValidateAvailability(context.Background(), parent, decimal.NewFromInt(1), testLocation)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.CanProduce {
		t.Error("expected CanProduce true given sufficient component stock")
	}
}
