package cost

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"factory-server/internal/entitytype"
)

const (
	woodID  = 1
	ironID  = 2
	playerA = 7
)

func testRegistry(t *testing.T) *entitytype.Registry {
	t.Helper()
	reg, err := entitytype.Catalog{
		Resources: []entitytype.Resource{{ID: woodID, Name: "wood"}, {ID: ironID, Name: "iron"}},
		EntityTypes: []entitytype.Spec{
			{ID: 1, Name: "chest", Category: entitytype.CategoryStorage, Width: 1, Height: 1,
				Costs: []entitytype.Cost{{ResourceID: woodID, Quantity: 4}, {ResourceID: ironID, Quantity: 1}}},
			{ID: 2, Name: "free", Category: entitytype.CategoryStorage, Width: 1, Height: 1},
		},
	}.Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func TestCanAfford(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	c := NewChecker(testRegistry(t), ledger)

	ok, err := c.CanAfford(ctx, playerA, 1)
	if err != nil || ok {
		t.Fatalf("expected unaffordable with empty balances, ok=%v err=%v", ok, err)
	}

	ledger.Set(playerA, woodID, 4)
	ledger.Set(playerA, ironID, 0)
	missing, err := c.Missing(ctx, playerA, 1)
	if err != nil {
		t.Fatalf("missing: %v", err)
	}
	want := []Shortfall{{ResourceID: ironID, Required: 1, Available: 0}}
	if !reflect.DeepEqual(missing, want) {
		t.Fatalf("expected %v, got %v", want, missing)
	}

	ledger.Set(playerA, ironID, 1)
	if ok, _ := c.CanAfford(ctx, playerA, 1); !ok {
		t.Fatalf("expected exact balance to be affordable")
	}
}

func TestEmptyCostAlwaysAffordable(t *testing.T) {
	c := NewChecker(testRegistry(t), NewMemoryLedger())
	ok, err := c.CanAfford(context.Background(), playerA, 2)
	if err != nil || !ok {
		t.Fatalf("expected affordable, ok=%v err=%v", ok, err)
	}
}

func TestUnknownTypeIsAnError(t *testing.T) {
	c := NewChecker(testRegistry(t), NewMemoryLedger())
	if _, err := c.CanAfford(context.Background(), playerA, 99); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDeductRefundSymmetry(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Set(playerA, woodID, 10)
	ledger.Set(playerA, ironID, 3)
	c := NewChecker(testRegistry(t), ledger)

	before, _ := ledger.Balances(ctx, playerA)
	if err := c.Deduct(ctx, playerA, 1); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	mid, _ := ledger.Balances(ctx, playerA)
	if mid[woodID] != 6 || mid[ironID] != 2 {
		t.Fatalf("unexpected balances after deduct: %v", mid)
	}
	if err := c.Refund(ctx, playerA, 1); err != nil {
		t.Fatalf("refund: %v", err)
	}
	after, _ := ledger.Balances(ctx, playerA)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected %v after refund, got %v", before, after)
	}
}

func TestDeductNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()
	ledger.Set(playerA, woodID, 1)
	c := NewChecker(testRegistry(t), ledger)

	err := c.Deduct(ctx, playerA, 1)
	if !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
	balances, _ := ledger.Balances(ctx, playerA)
	if balances[woodID] != 1 {
		t.Fatalf("balance must stay non-negative, got %v", balances)
	}
}
