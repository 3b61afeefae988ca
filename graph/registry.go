package graph

import (
	"maps"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	modules    = make(map[string]map[string]Graph)
)

// Register makes a graph available to the resolver as "module:name".
// Packages typically call it from init, the way database/sql drivers
// register themselves. Register panics if g is nil or the name is taken.
func Register(module, name string, g Graph) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if g == nil {
		panic("graph: Register graph is nil")
	}
	exports, ok := modules[module]
	if !ok {
		exports = make(map[string]Graph)
		modules[module] = exports
	}
	if _, dup := exports[name]; dup {
		panic("graph: Register called twice for " + module + ":" + name)
	}
	exports[name] = g
}

// Lookup returns the graph registered as module:name.
func Lookup(module, name string) (Graph, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	g, ok := modules[module][name]
	return g, ok
}

// HasModule reports whether any graph is registered under module.
func HasModule(module string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := modules[module]
	return ok
}

// Exports returns the sorted names registered under module.
func Exports(module string) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(modules[module]))
}

// Modules returns the sorted names of all registered modules.
func Modules() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(modules))
}
