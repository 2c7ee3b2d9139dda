package server

import "sync"

// nicknameStore maps addresses to display names, independent of round
// lifecycle.
type nicknameStore struct {
	mu     sync.Mutex
	byAddr map[string]string
}

func newNicknameStore() *nicknameStore {
	return &nicknameStore{
		byAddr: make(map[string]string),
	}
}

func (n *nicknameStore) Set(address, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byAddr[address] = name
}

// Get returns the nickname for an address, empty string if unset.
func (n *nicknameStore) Get(address string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.byAddr[address]
}

// GetMany resolves a batch of addresses in one call.
func (n *nicknameStore) GetMany(addresses []string) map[string]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[string]string, len(addresses))
	for _, address := range addresses {
		out[address] = n.byAddr[address]
	}
	return out
}
