package pulsegraph

import (
	"fmt"
	"sync"
)

// Network is a mutable builder for module topologies.
// Use NewNetwork (or one of the Parse functions) to create one, add modules,
// then call Compile to obtain an immutable Circuit.
//
// Network is NOT thread-safe during building. Build it from a single
// goroutine; the compiled Circuit can be shared freely.
//
// Example:
//
//	circuit, err := pulsegraph.NewNetwork().
//	    AddModule("broadcaster", pulsegraph.Broadcast, "a").
//	    AddModule("a", pulsegraph.FlipFlop, "out").
//	    Compile()
type Network struct {
	mu       sync.RWMutex
	decls    []declaration
	declared map[string]int
	entry    string
}

// declaration is one declared module in source order.
type declaration struct {
	name  string
	kind  Kind
	dests []string
}

// NewNetwork creates an empty network whose entry is DefaultEntry.
func NewNetwork() *Network {
	return &Network{
		declared: make(map[string]int),
		entry:    DefaultEntry,
	}
}

// AddModule declares a module with its behavior and ordered destinations.
// Destinations that are never declared become terminals at compile time.
// Returns the network for method chaining.
//
// Panics if:
//   - name is not a valid module name
//   - kind is Terminal (terminals are implicit)
//   - a destination is not a valid module name
//   - name is already declared
//
// Parse reports the same conditions as *ParseError values instead.
func (n *Network) AddModule(name string, kind Kind, dests ...string) *Network {
	if !validName(name) {
		panic(fmt.Sprintf("pulsegraph: invalid module name %q", name))
	}
	if kind == Terminal {
		panic("pulsegraph: terminal modules cannot be declared")
	}
	for _, d := range dests {
		if !validName(d) {
			panic(fmt.Sprintf("pulsegraph: invalid destination name %q", d))
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.declared[name]; exists {
		panic(fmt.Sprintf("pulsegraph: duplicate module: %s", name))
	}

	n.declared[name] = len(n.decls)
	n.decls = append(n.decls, declaration{
		name:  name,
		kind:  kind,
		dests: append([]string(nil), dests...),
	})
	return n
}

// HasModule reports whether name has been declared.
func (n *Network) HasModule(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, ok := n.declared[name]
	return ok
}

// SetEntry designates the module that receives the button pulse.
// Entry validation happens at Compile time.
func (n *Network) SetEntry(name string) *Network {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.entry = name
	return n
}

// validName reports whether s is a non-empty ASCII alphanumeric token.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlnum(s[i]) {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
