package schema

import "sync"

// Authoring per-version schema data is out of scope for this module
// (see package doc); Register/Lookup exist so a binary that does embed
// real schema data — generated from the game's published entity
// definitions and constants — can plug it into cmd/wowsunpack (or any
// other Provider consumer) without that consumer importing the schema
// source directly. Mirrors database/sql's driver registry: a blank
// import of the schema-data package calls Register in its init.
var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// Register makes a Provider available under name for later Lookup. It
// panics on a duplicate name or a nil provider, matching sql.Register's
// contract: registration happens at init time, where a programmer error
// should fail loud and immediately.
func Register(name string, p Provider) {
	if p == nil {
		panic("schema: Register called with a nil Provider")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("schema: Register called twice for name " + name)
	}
	registry[name] = p
}

// Lookup returns the Provider registered under name, if any.
func Lookup(name string) (Provider, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}
