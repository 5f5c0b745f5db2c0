package placement

import (
	"errors"
	"fmt"
	"sync/atomic"

	"factory-server/internal/entitytype"
	"factory-server/internal/tile"
)

var ErrEngineSealed = errors.New("placement engine is sealed")

// Engine picks the behavior for an entity type and evaluates a request.
// It holds no per-request state; once sealed it is safe for concurrent use.
type Engine struct {
	registry  *entitytype.Registry
	behaviors map[entitytype.Category]Behavior
	sealed    atomic.Bool
}

// NewEngine returns an engine with the default behavior for every player
// buildable category. Categories without a behavior, such as "other", are
// rejected as invalid.
func NewEngine(registry *entitytype.Registry) *Engine {
	e := &Engine{
		registry:  registry,
		behaviors: make(map[entitytype.Category]Behavior),
	}
	e.behaviors[entitytype.CategoryMining] = Mining{Registry: registry}
	e.behaviors[entitytype.CategoryStorage] = Building{}
	e.behaviors[entitytype.CategoryTransporter] = Building{}
	e.behaviors[entitytype.CategoryManipulator] = Manipulator{}
	e.behaviors[entitytype.CategoryDecorative] = WorldGenerated{}
	e.behaviors[entitytype.CategoryRelief] = WorldGenerated{}
	e.behaviors[entitytype.CategoryTree] = WorldGenerated{}
	e.behaviors[entitytype.CategoryShipComponent] = ShipComponent{}
	return e
}

// Register replaces or adds the behavior for a category. Only valid before
// Seal.
func (e *Engine) Register(category entitytype.Category, b Behavior) error {
	if e.sealed.Load() {
		return ErrEngineSealed
	}
	if !category.Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if b == nil {
		return fmt.Errorf("nil behavior for category %q", category)
	}
	e.behaviors[category] = b
	return nil
}

func (e *Engine) Seal() {
	e.sealed.Store(true)
}

func (e *Engine) Registry() *entitytype.Registry {
	return e.registry
}

// Evaluate decides whether req is legal against w. Denials are returned as
// decisions, never as errors. A footprint reaching outside the storable
// coordinate range is never buildable.
func (e *Engine) Evaluate(req Request, w World) Decision {
	spec, ok := e.registry.Spec(req.TypeID)
	if !ok {
		return Deny(CodeInvalidEntityType, MsgInvalidEntityType)
	}
	b, ok := e.behaviors[spec.Category]
	if !ok {
		return Deny(CodeInvalidEntityType, MsgInvalidEntityType)
	}
	if !tile.Footprint(req.Origin, spec.Width, spec.Height).InBounds() {
		return DenyAt(CodeNotBuildable, MsgNotBuildable, req.Origin)
	}
	return b.CanBuildAt(spec, req, w)
}
