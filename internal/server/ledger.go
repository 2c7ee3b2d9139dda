package server

import (
	"sort"
	"sync"
)

// Standing is one leaderboard row.
type Standing struct {
	Address string `json:"address"`
	XP      int64  `json:"xp"`
}

// Ledger accumulates XP per address. Addresses are enumerated in
// first-award order, which also breaks leaderboard ties, so repeated
// Rank calls over the same state always agree.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int64
	order    []string
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]int64),
	}
}

// Award adds to an address's balance, enrolling it in the enumeration
// list the first time it earns anything.
func (l *Ledger) Award(address string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, known := l.balances[address]; !known {
		l.balances[address] = 0
		l.order = append(l.order, address)
	}
	l.balances[address] += amount
}

// Balance returns an address's XP, zero if it has never been awarded.
func (l *Ledger) Balance(address string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[address]
}

// Rank returns every enumerated address with its balance, highest XP
// first. The stable sort keeps first-award order among ties.
func (l *Ledger) Rank() []Standing {
	l.mu.Lock()
	defer l.mu.Unlock()

	standings := make([]Standing, 0, len(l.order))
	for _, address := range l.order {
		standings = append(standings, Standing{
			Address: address,
			XP:      l.balances[address],
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].XP > standings[j].XP
	})
	return standings
}

// Restore seeds a balance during startup, preserving enumeration order
// when called in first-award order.
func (l *Ledger) Restore(address string, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, known := l.balances[address]; !known {
		l.order = append(l.order, address)
	}
	l.balances[address] = balance
}
