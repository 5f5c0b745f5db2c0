package cost

import (
	"context"
	"fmt"

	"factory-server/internal/entitytype"
)

// Shortfall is a resource the player lacks for a build.
type Shortfall struct {
	ResourceID int   `json:"resource_id"`
	Required   int64 `json:"required"`
	Available  int64 `json:"available"`
}

// Checker compares entity type costs with player balances and moves
// resources on build and refund.
type Checker struct {
	registry *entitytype.Registry
	ledger   Ledger
}

func NewChecker(registry *entitytype.Registry, ledger Ledger) *Checker {
	return &Checker{
		registry: registry,
		ledger:   ledger,
	}
}

func (c *Checker) costs(typeID int) ([]entitytype.Cost, error) {
	spec, ok := c.registry.Spec(typeID)
	if !ok {
		return nil, fmt.Errorf("unknown entity type %d", typeID)
	}
	return spec.Costs, nil
}

// Missing lists every cost entry the player cannot cover, in cost table order.
func (c *Checker) Missing(ctx context.Context, playerID, typeID int) ([]Shortfall, error) {
	costs, err := c.costs(typeID)
	if err != nil {
		return nil, err
	}
	if len(costs) == 0 {
		return nil, nil
	}
	balances, err := c.ledger.Balances(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balances: %w", err)
	}
	var missing []Shortfall
	for _, cost := range costs {
		if have := balances[cost.ResourceID]; have < cost.Quantity {
			missing = append(missing, Shortfall{ResourceID: cost.ResourceID, Required: cost.Quantity, Available: have})
		}
	}
	return missing, nil
}

// CanAfford reports whether every resource in the cost table is covered. A
// type without costs is always affordable.
func (c *Checker) CanAfford(ctx context.Context, playerID, typeID int) (bool, error) {
	missing, err := c.Missing(ctx, playerID, typeID)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Deduct removes the build cost from the player's balances. Callers run it
// inside the placement transaction, once per placement.
func (c *Checker) Deduct(ctx context.Context, playerID, typeID int) error {
	costs, err := c.costs(typeID)
	if err != nil {
		return err
	}
	for _, cost := range costs {
		if err := c.ledger.Adjust(ctx, playerID, cost.ResourceID, -cost.Quantity); err != nil {
			return fmt.Errorf("failed to deduct resource %d: %w", cost.ResourceID, err)
		}
	}
	return nil
}

// Refund returns the build cost to the player.
func (c *Checker) Refund(ctx context.Context, playerID, typeID int) error {
	costs, err := c.costs(typeID)
	if err != nil {
		return err
	}
	for _, cost := range costs {
		if err := c.ledger.Adjust(ctx, playerID, cost.ResourceID, cost.Quantity); err != nil {
			return fmt.Errorf("failed to refund resource %d: %w", cost.ResourceID, err)
		}
	}
	return nil
}
