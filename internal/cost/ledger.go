package cost

import (
	"context"
	"errors"
	"sync"
)

var ErrNegativeBalance = errors.New("resource balance would become negative")

// Ledger holds per-player resource balances.
type Ledger interface {
	Balances(ctx context.Context, playerID int) (map[int]int64, error)
	// Adjust adds delta to a balance and must fail with ErrNegativeBalance
	// instead of going below zero.
	Adjust(ctx context.Context, playerID, resourceID int, delta int64) error
}

// MemoryLedger is a Ledger kept in process memory.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[int]map[int]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[int]map[int]int64)}
}

func (l *MemoryLedger) Set(playerID, resourceID int, quantity int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[playerID] == nil {
		l.balances[playerID] = make(map[int]int64)
	}
	l.balances[playerID][resourceID] = quantity
}

func (l *MemoryLedger) Balances(_ context.Context, playerID int) (map[int]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int]int64, len(l.balances[playerID]))
	for id, q := range l.balances[playerID] {
		out[id] = q
	}
	return out, nil
}

func (l *MemoryLedger) Adjust(_ context.Context, playerID, resourceID int, delta int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	current := l.balances[playerID][resourceID]
	if current+delta < 0 {
		return ErrNegativeBalance
	}
	if l.balances[playerID] == nil {
		l.balances[playerID] = make(map[int]int64)
	}
	l.balances[playerID][resourceID] = current + delta
	return nil
}
