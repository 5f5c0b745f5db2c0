package placement

import (
	"factory-server/internal/entitytype"
	"factory-server/internal/terrain"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

// Behavior answers placement questions for one entity category.
type Behavior interface {
	CanBuildAt(spec *entitytype.Spec, req Request, w World) Decision
}

// checkGround runs the checks every island building shares: fog, terrain and
// entity collision. It returns nil when the tile passes.
func checkGround(req Request, w World, c tile.Coord) *Decision {
	if !visibility.IsVisible(req.Visible, c) {
		d := DenyAt(CodeNotVisible, MsgNotVisible, c)
		return &d
	}
	if !terrain.Buildable(w, req.Region, c) {
		d := DenyAt(CodeNotBuildable, MsgNotBuildable, c)
		return &d
	}
	if _, ok := w.EntityAt(req.Region, c); ok {
		d := DenyAt(CodeOccupied, MsgOccupied, c)
		return &d
	}
	return nil
}

// Building covers storage, processing and transporter categories: every
// covered tile must be visible, buildable and free of entities and deposits.
type Building struct{}

func (Building) CanBuildAt(spec *entitytype.Spec, req Request, w World) Decision {
	for _, c := range tile.Footprint(req.Origin, spec.Width, spec.Height).Tiles() {
		if d := checkGround(req, w, c); d != nil {
			return *d
		}
		if _, ok := w.DepositAt(req.Region, c); ok {
			return DenyAt(CodeOccupied, MsgOccupied, c)
		}
	}
	return Allow()
}

// Mining requires at least one deposit of a family the building extracts.
// Covered tiles are either bare buildable ground or hold such a deposit, and
// every covered deposit is consumed.
type Mining struct {
	Registry *entitytype.Registry
}

func (m Mining) CanBuildAt(spec *entitytype.Spec, req Request, w World) Decision {
	var deposits []int64
	for _, c := range tile.Footprint(req.Origin, spec.Width, spec.Height).Tiles() {
		if d := checkGround(req, w, c); d != nil {
			return *d
		}
		dep, ok := w.DepositAt(req.Region, c)
		if !ok {
			continue
		}
		dt, ok := m.Registry.Deposit(dep.TypeID)
		if !ok || !spec.CanExtract(dt.Family) {
			return DenyAt(CodeNoCompatibleDeposit, MsgNoCompatibleDeposit, c)
		}
		deposits = append(deposits, dep.ID)
	}
	if len(deposits) == 0 {
		return DenyAt(CodeNoCompatibleDeposit, MsgNoCompatibleDeposit, req.Origin)
	}
	d := Allow()
	d.DepositsToRemove = deposits
	return d
}

// Manipulator places like a Building and additionally grabs the nearest
// resource-bearing entity within reach that the placing player owns.
type Manipulator struct{}

func (Manipulator) CanBuildAt(spec *entitytype.Spec, req Request, w World) Decision {
	d := Building{}.CanBuildAt(spec, req, w)
	if !d.Allowed || spec.ReachDistance <= 0 {
		return d
	}
	if target := nearestStocked(spec, req, w); target != nil {
		d.TargetEntity = &EntityRef{ID: target.ID, TypeID: target.TypeID, Origin: target.Origin}
	}
	return d
}

func nearestStocked(spec *entitytype.Spec, req Request, w World) *world.Entity {
	fp := tile.Footprint(req.Origin, spec.Width, spec.Height)
	var (
		best     *world.Entity
		bestDist int
	)
	for _, e := range w.EntitiesWithin(req.Region, fp.Expand(spec.ReachDistance)) {
		if !e.HasResources() || e.OwnerID == nil || *e.OwnerID != req.PlayerID {
			continue
		}
		dist := fp.Distance(e.Footprint())
		if dist == 0 || dist > spec.ReachDistance {
			continue
		}
		if best == nil || dist < bestDist {
			best, bestDist = e, dist
		}
	}
	return best
}

// WorldGenerated rejects every player placement of trees, rocks and
// decorations.
type WorldGenerated struct{}

func (WorldGenerated) CanBuildAt(_ *entitytype.Spec, req Request, _ World) Decision {
	return DenyAt(CodeNotBuildable, MsgWorldGenerated, req.Origin)
}

// ShipComponent ignores island buildability and deposits. Tiles only need
// terrain, must lie in the player's ship area and be free of entities.
type ShipComponent struct{}

func (ShipComponent) CanBuildAt(spec *entitytype.Spec, req Request, w World) Decision {
	area, hasShip := w.ShipArea(req.PlayerID)
	for _, c := range tile.Footprint(req.Origin, spec.Width, spec.Height).Tiles() {
		if !visibility.IsVisible(req.Visible, c) {
			return DenyAt(CodeNotVisible, MsgNotVisible, c)
		}
		if _, ok := w.TerrainAt(req.Region, c); !ok {
			return DenyAt(CodeNotBuildable, MsgNotBuildable, c)
		}
		if !hasShip || !area.Contains(c) {
			return DenyAt(CodeNotBuildable, MsgOutsideShip, c)
		}
		if _, ok := w.EntityAt(req.Region, c); ok {
			return DenyAt(CodeOccupied, MsgOccupied, c)
		}
	}
	return Allow()
}
