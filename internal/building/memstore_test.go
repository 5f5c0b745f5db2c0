package building

import (
	"context"
	"sort"
	"sync"

	"factory-server/internal/cost"
	"factory-server/internal/entitytype"
	"factory-server/internal/tile"
	"factory-server/internal/visibility"
	"factory-server/internal/world"
)

type tileKey struct {
	region int
	coord  tile.Coord
}

type memState struct {
	terrain  map[tileKey]int
	entities map[int64]world.Entity
	deposits map[int64]world.Deposit
	ships    map[int]tile.Rect
	balances map[int]map[int]int64
	nextID   int64
}

func (s *memState) clone() *memState {
	out := &memState{
		terrain:  make(map[tileKey]int, len(s.terrain)),
		entities: make(map[int64]world.Entity, len(s.entities)),
		deposits: make(map[int64]world.Deposit, len(s.deposits)),
		ships:    make(map[int]tile.Rect, len(s.ships)),
		balances: make(map[int]map[int]int64, len(s.balances)),
		nextID:   s.nextID,
	}
	for k, v := range s.terrain {
		out.terrain[k] = v
	}
	for id, e := range s.entities {
		res := make(map[int]int64, len(e.Resources))
		for r, q := range e.Resources {
			res[r] = q
		}
		e.Resources = res
		out.entities[id] = e
	}
	for id, d := range s.deposits {
		out.deposits[id] = d
	}
	for p, r := range s.ships {
		out.ships[p] = r
	}
	for p, b := range s.balances {
		m := make(map[int]int64, len(b))
		for r, q := range b {
			m[r] = q
		}
		out.balances[p] = m
	}
	return out
}

// memStore is a Store that applies a transaction only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	registry *entitytype.Registry
	state    *memState
	// insertErr, when set, is returned by the next InsertEntity.
	insertErr error
	// lockHook, when set, rewrites the row LockEntity returns.
	lockHook func(e *world.Entity)
}

func newMemStore(registry *entitytype.Registry) *memStore {
	return &memStore{
		registry: registry,
		state: &memState{
			terrain:  make(map[tileKey]int),
			entities: make(map[int64]world.Entity),
			deposits: make(map[int64]world.Deposit),
			ships:    make(map[int]tile.Rect),
			balances: make(map[int]map[int]int64),
			nextID:   1000,
		},
	}
}

func (m *memStore) fill(region int, area tile.Rect, landingID int) {
	for _, c := range area.Tiles() {
		m.state.terrain[tileKey{region, c}] = landingID
	}
}

func (m *memStore) addEntity(e world.Entity) int64 {
	if e.ID == 0 {
		m.state.nextID++
		e.ID = m.state.nextID
	}
	m.state.entities[e.ID] = e
	return e.ID
}

func (m *memStore) addDeposit(d world.Deposit) {
	m.state.deposits[d.ID] = d
}

func (m *memStore) setBalance(playerID, resourceID int, qty int64) {
	if m.state.balances[playerID] == nil {
		m.state.balances[playerID] = make(map[int]int64)
	}
	m.state.balances[playerID][resourceID] = qty
}

func (m *memStore) balance(playerID, resourceID int) int64 {
	return m.state.balances[playerID][resourceID]
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) Eyes(_ context.Context, playerID, region int, sightRadius map[int]int) ([]visibility.Eye, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var eyes []visibility.Eye
	for _, e := range m.state.entities {
		if e.Region != region || e.OwnerID == nil || *e.OwnerID != playerID {
			continue
		}
		r, ok := sightRadius[e.TypeID]
		if !ok {
			continue
		}
		eyes = append(eyes, visibility.Eye{
			Center: tile.Coord{X: e.Origin.X + e.Width/2, Y: e.Origin.Y + e.Height/2},
			Radius: r,
		})
	}
	return eyes, nil
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) LoadSnapshot(_ context.Context, region int, area tile.Rect, playerID int) (*world.Snapshot, error) {
	snap := world.NewSnapshot(t.store.registry.Landings())
	for k, landingID := range t.state.terrain {
		if k.region == region && area.Contains(k.coord) {
			if err := snap.SetTerrain(region, k.coord, landingID); err != nil {
				return nil, err
			}
		}
	}
	ids := make([]int64, 0, len(t.state.entities))
	for id := range t.state.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := t.state.entities[id]
		if e.Region == region && area.Overlaps(e.Footprint()) {
			if err := snap.AddEntity(e); err != nil {
				return nil, err
			}
		}
	}
	for _, d := range t.state.deposits {
		if d.Region == region && area.Contains(d.Position) {
			snap.AddDeposit(d)
		}
	}
	if r, ok := t.state.ships[playerID]; ok {
		snap.SetShipArea(playerID, r)
	}
	return snap, nil
}

func (t *memTx) Ledger() cost.Ledger {
	return memLedger{state: t.state}
}

func (t *memTx) LockEntity(_ context.Context, id int64) (*world.Entity, error) {
	e, ok := t.state.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	if t.store.lockHook != nil {
		t.store.lockHook(&e)
		t.state.entities[id] = e
	}
	return &e, nil
}

func (t *memTx) InsertEntity(_ context.Context, e *world.Entity) error {
	if err := t.store.insertErr; err != nil {
		t.store.insertErr = nil
		return err
	}
	fp := e.Footprint()
	for _, other := range t.state.entities {
		if other.Region == e.Region && other.Footprint().Overlaps(fp) {
			return ErrTileTaken
		}
	}
	t.state.nextID++
	e.ID = t.state.nextID
	t.state.entities[e.ID] = *e
	return nil
}

func (t *memTx) DeleteEntity(_ context.Context, id int64) error {
	if _, ok := t.state.entities[id]; !ok {
		return ErrNotFound
	}
	delete(t.state.entities, id)
	return nil
}

func (t *memTx) SetEntityState(_ context.Context, id int64, state world.EntityState) error {
	e, ok := t.state.entities[id]
	if !ok {
		return ErrNotFound
	}
	e.State = state
	t.state.entities[id] = e
	return nil
}

func (t *memTx) DeleteDeposits(_ context.Context, ids []int64) ([]world.Deposit, error) {
	var out []world.Deposit
	for _, id := range ids {
		d, ok := t.state.deposits[id]
		if !ok {
			return nil, ErrSerialization
		}
		out = append(out, d)
		delete(t.state.deposits, id)
	}
	return out, nil
}

func (t *memTx) SetTerrain(_ context.Context, region int, tiles []tile.Coord, landingID int) error {
	for _, c := range tiles {
		t.state.terrain[tileKey{region, c}] = landingID
	}
	return nil
}

type memLedger struct {
	state *memState
}

func (l memLedger) Balances(_ context.Context, playerID int) (map[int]int64, error) {
	out := make(map[int]int64)
	for r, q := range l.state.balances[playerID] {
		out[r] = q
	}
	return out, nil
}

func (l memLedger) Adjust(_ context.Context, playerID, resourceID int, delta int64) error {
	current := l.state.balances[playerID][resourceID]
	if current+delta < 0 {
		return cost.ErrNegativeBalance
	}
	if l.state.balances[playerID] == nil {
		l.state.balances[playerID] = make(map[int]int64)
	}
	l.state.balances[playerID][resourceID] = current + delta
	return nil
}
