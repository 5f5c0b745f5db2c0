package entitytype

import (
	"errors"
	"testing"

	"factory-server/internal/terrain"
)

func TestLoadCatalogYAML(t *testing.T) {
	reg, err := Load("../../configs/catalog.yaml")
	if err != nil {
		t.Fatalf("load catalog.yaml: %v", err)
	}
	if !reg.Sealed() {
		t.Fatalf("loaded registry should be sealed")
	}
	furnace, ok := reg.Spec(101)
	if !ok || furnace.Category != CategoryStorage {
		t.Fatalf("expected 101 to be a storage building, got %#v", furnace)
	}
	drill, ok := reg.Spec(102)
	if !ok || drill.Category != CategoryMining || !drill.CanExtract("ore") {
		t.Fatalf("expected 102 to be an ore drill, got %#v", drill)
	}
	floor, ok := reg.Spec(301)
	if !ok || floor.ConvertsToLandingID == nil {
		t.Fatalf("expected ship floor blueprint to convert to a landing")
	}
	if l, ok := reg.Landing(*floor.ConvertsToLandingID); !ok || !l.IsShip() {
		t.Fatalf("ship floor should convert to a ship landing, got %#v", l)
	}
	if reg.MaxReach() != 2 {
		t.Fatalf("expected max reach 2, got %d", reg.MaxReach())
	}
}

func TestRegisterAfterSealFails(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()
	err := reg.Register(Spec{ID: 1, Category: CategoryStorage, Width: 1, Height: 1})
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
}

func TestCatalogBuildValidation(t *testing.T) {
	base := func() Catalog {
		return Catalog{
			Resources: []Resource{{ID: 1, Name: "iron_ore"}},
			Landings:  []terrain.Type{{ID: 1, Name: "grass", Buildable: true, Category: terrain.CategoryIsland}},
			DepositTypes: []DepositType{
				{ID: 1, Name: "iron", ResourceID: 1, Family: "ore"},
			},
		}
	}
	landing := 9

	cases := map[string]Spec{
		"empty footprint":            {ID: 1, Category: CategoryStorage, Width: 0, Height: 1},
		"unknown category":           {ID: 1, Category: "castle", Width: 1, Height: 1},
		"mining without extracts":    {ID: 1, Category: CategoryMining, Width: 1, Height: 1},
		"unknown cost resource":      {ID: 1, Category: CategoryStorage, Width: 1, Height: 1, Costs: []Cost{{ResourceID: 7, Quantity: 1}}},
		"non positive cost":          {ID: 1, Category: CategoryStorage, Width: 1, Height: 1, Costs: []Cost{{ResourceID: 1, Quantity: 0}}},
		"unknown landing conversion": {ID: 1, Category: CategoryShipComponent, Width: 1, Height: 1, ConvertsToLandingID: &landing},
	}
	for name, spec := range cases {
		c := base()
		c.EntityTypes = []Spec{spec}
		if _, err := c.Build(); err == nil {
			t.Fatalf("%s: expected build error", name)
		}
	}

	c := base()
	c.EntityTypes = []Spec{
		{ID: 1, Category: CategoryStorage, Width: 1, Height: 1},
		{ID: 1, Category: CategoryStorage, Width: 1, Height: 1},
	}
	if _, err := c.Build(); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	c = base()
	c.DepositTypes = append(c.DepositTypes, DepositType{ID: 2, Name: "gold", ResourceID: 42, Family: "ore"})
	if _, err := c.Build(); err == nil {
		t.Fatalf("expected unknown deposit resource error")
	}
}

func TestRegisterCopiesSlices(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterResource(Resource{ID: 1, Name: "wood"}); err != nil {
		t.Fatalf("register resource: %v", err)
	}
	costs := []Cost{{ResourceID: 1, Quantity: 2}}
	if err := reg.Register(Spec{ID: 5, Category: CategoryStorage, Width: 1, Height: 1, Costs: costs}); err != nil {
		t.Fatalf("register: %v", err)
	}
	costs[0].Quantity = 100
	s, _ := reg.Spec(5)
	if s.Costs[0].Quantity != 2 {
		t.Fatalf("registry must not alias caller slices")
	}
}

func TestRegisterRejectsDuplicateCostResource(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterResource(Resource{ID: 1, Name: "wood"}); err != nil {
		t.Fatalf("register resource: %v", err)
	}
	costs := []Cost{{ResourceID: 1, Quantity: 2}, {ResourceID: 1, Quantity: 3}}
	if err := reg.Register(Spec{ID: 5, Category: CategoryStorage, Width: 1, Height: 1, Costs: costs}); err == nil {
		t.Fatalf("expected error for resource listed twice in costs")
	}
	if _, ok := reg.Spec(5); ok {
		t.Fatalf("rejected spec must not be registered")
	}
}
