package entitytype

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"factory-server/internal/terrain"
)

var ErrSealed = errors.New("registry is sealed")

// Registry holds entity, deposit, resource and landing definitions. It is
// filled at startup and sealed before serving; after Seal it is read only
// and safe for concurrent use.
type Registry struct {
	sealed    atomic.Bool
	specs     map[int]*Spec
	deposits  map[int]*DepositType
	resources map[int]*Resource
	landings  map[int]terrain.Type
}

func NewRegistry() *Registry {
	return &Registry{
		specs:     make(map[int]*Spec),
		deposits:  make(map[int]*DepositType),
		resources: make(map[int]*Resource),
		landings:  make(map[int]terrain.Type),
	}
}

func (r *Registry) RegisterResource(res Resource) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if res.ID <= 0 {
		return fmt.Errorf("resource %q: id must be positive", res.Name)
	}
	if _, ok := r.resources[res.ID]; ok {
		return fmt.Errorf("resource %d registered twice", res.ID)
	}
	r.resources[res.ID] = &res
	return nil
}

func (r *Registry) RegisterLanding(t terrain.Type) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if t.ID <= 0 {
		return fmt.Errorf("landing %q: id must be positive", t.Name)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("landing %d: unknown category %q", t.ID, t.Category)
	}
	if _, ok := r.landings[t.ID]; ok {
		return fmt.Errorf("landing %d registered twice", t.ID)
	}
	r.landings[t.ID] = t
	return nil
}

func (r *Registry) RegisterDeposit(d DepositType) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if d.ID <= 0 {
		return fmt.Errorf("deposit type %q: id must be positive", d.Name)
	}
	if _, ok := r.deposits[d.ID]; ok {
		return fmt.Errorf("deposit type %d registered twice", d.ID)
	}
	if _, ok := r.resources[d.ResourceID]; !ok {
		return fmt.Errorf("deposit type %d: unknown resource %d", d.ID, d.ResourceID)
	}
	if d.Family == "" {
		return fmt.Errorf("deposit type %d: family is required", d.ID)
	}
	r.deposits[d.ID] = &d
	return nil
}

func (r *Registry) Register(s Spec) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if s.ID <= 0 {
		return fmt.Errorf("entity type %q: id must be positive", s.Name)
	}
	if _, ok := r.specs[s.ID]; ok {
		return fmt.Errorf("entity type %d registered twice", s.ID)
	}
	if !s.Category.Valid() {
		return fmt.Errorf("entity type %d: unknown category %q", s.ID, s.Category)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("entity type %d: footprint %dx%d is empty", s.ID, s.Width, s.Height)
	}
	if s.Category == CategoryMining && len(s.Extracts) == 0 {
		return fmt.Errorf("entity type %d: mining building extracts nothing", s.ID)
	}
	if s.ReachDistance < 0 || s.SightRadius < 0 {
		return fmt.Errorf("entity type %d: negative reach or sight radius", s.ID)
	}
	seen := make(map[int]struct{}, len(s.Costs))
	for _, c := range s.Costs {
		if _, dup := seen[c.ResourceID]; dup {
			return fmt.Errorf("entity type %d: resource %d listed twice in costs", s.ID, c.ResourceID)
		}
		seen[c.ResourceID] = struct{}{}
		if _, ok := r.resources[c.ResourceID]; !ok {
			return fmt.Errorf("entity type %d: cost references unknown resource %d", s.ID, c.ResourceID)
		}
		if c.Quantity <= 0 {
			return fmt.Errorf("entity type %d: cost of resource %d must be positive", s.ID, c.ResourceID)
		}
	}
	if s.ConvertsToLandingID != nil {
		if _, ok := r.landings[*s.ConvertsToLandingID]; !ok {
			return fmt.Errorf("entity type %d: converts to unknown landing %d", s.ID, *s.ConvertsToLandingID)
		}
	}
	spec := s
	spec.Costs = append([]Cost(nil), s.Costs...)
	spec.Extracts = append([]string(nil), s.Extracts...)
	r.specs[s.ID] = &spec
	return nil
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Spec returns the entity type definition. The returned value must not be
// modified.
func (r *Registry) Spec(id int) (*Spec, bool) {
	s, ok := r.specs[id]
	return s, ok
}

func (r *Registry) Deposit(id int) (*DepositType, bool) {
	d, ok := r.deposits[id]
	return d, ok
}

func (r *Registry) Resource(id int) (*Resource, bool) {
	res, ok := r.resources[id]
	return res, ok
}

func (r *Registry) Landing(id int) (terrain.Type, bool) {
	t, ok := r.landings[id]
	return t, ok
}

// Landings returns every landing type ordered by id.
func (r *Registry) Landings() []terrain.Type {
	out := make([]terrain.Type, 0, len(r.landings))
	for _, t := range r.landings {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Specs returns every entity type ordered by id.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MaxReach is the largest manipulator reach, used to size snapshot windows.
func (r *Registry) MaxReach() int {
	reach := 0
	for _, s := range r.specs {
		reach = max(reach, s.ReachDistance)
	}
	return reach
}
