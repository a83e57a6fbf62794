package roster

import "sync"

// ManaPool holds a side's spendable resource balance.
type ManaPool struct {
	mu     sync.RWMutex
	amount int
}

// NewManaPool creates a pool with the given starting balance.
func NewManaPool(amount int) *ManaPool {
	if amount < 0 {
		amount = 0
	}
	return &ManaPool{amount: amount}
}

// Add adds mana up to limit. A limit of zero or less means uncapped. A
// balance already above the limit is kept as it is.
func (mp *ManaPool) Add(amount, limit int) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if amount <= 0 {
		return mp.amount
	}
	if limit > 0 {
		amount = min(amount, max(limit-mp.amount, 0))
	}
	mp.amount += amount
	return mp.amount
}

// Set replaces the balance.
func (mp *ManaPool) Set(amount int) {
	if amount < 0 {
		amount = 0
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.amount = amount
}

// Available returns the current balance.
func (mp *ManaPool) Available() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.amount
}

// Spend attempts to spend mana from the pool.
// Returns false, leaving the pool untouched, if the balance is insufficient.
func (mp *ManaPool) Spend(amount int) bool {
	if amount <= 0 {
		return true
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if mp.amount < amount {
		return false
	}
	mp.amount -= amount
	return true
}
