package pulsegraph

// Circuit is an immutable, runnable module topology.
// It is created by calling Compile on a Network.
//
// Module names are interned to dense indices; kinds, edges and conjunction
// inputs are stored in slices indexed by that id so the press loop never
// hashes a name. Circuit holds no runtime state: every run builds its own
// Engine, so a Circuit can be shared between goroutines.
type Circuit struct {
	names    []string
	index    map[string]int
	kinds    []Kind
	edges    [][]edge
	inputs   [][]int // conjunction id -> input ids, slot order
	preds    [][]int
	declared int
	entry    int

	text   string
	digest string
}

// edge is a resolved outgoing connection.
type edge struct {
	to int
	// slot is the source's memory slot in a conjunction destination, -1
	// otherwise.
	slot int
}

// Entry returns the name of the module that receives the button pulse.
func (c *Circuit) Entry() string {
	return c.names[c.entry]
}

// Len returns the number of modules, terminals included.
func (c *Circuit) Len() int {
	return len(c.names)
}

// Names returns every module name: declared modules in declaration order,
// then implicit terminals in first-seen order.
func (c *Circuit) Names() []string {
	return append([]string(nil), c.names...)
}

// HasModule reports whether name is a declared module or a terminal.
func (c *Circuit) HasModule(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Kind returns the behavior of the named module.
// The second result is false for unknown names.
func (c *Circuit) Kind(name string) (Kind, bool) {
	id, ok := c.index[name]
	if !ok {
		return Terminal, false
	}
	return c.kinds[id], true
}

// Successors returns the destinations of name in delivery order.
// Returns nil for terminals and unknown names.
func (c *Circuit) Successors(name string) []string {
	id, ok := c.index[name]
	if !ok {
		return nil
	}
	return c.namesOfEdges(c.edges[id])
}

// Predecessors returns the modules with an edge to name, in declaration
// order. Returns nil for unknown names.
func (c *Circuit) Predecessors(name string) []string {
	id, ok := c.index[name]
	if !ok {
		return nil
	}
	return c.namesOf(c.preds[id])
}

// Inputs returns the tracked inputs of a conjunction in memory slot order.
// Returns nil for other kinds.
func (c *Circuit) Inputs(name string) []string {
	id, ok := c.index[name]
	if !ok {
		return nil
	}
	return c.namesOf(c.inputs[id])
}

// Digest returns a stable hash of the declarations and entry. Circuits
// parsed from equivalent text share a digest.
func (c *Circuit) Digest() string {
	return c.digest
}

// String returns the canonical declaration text.
func (c *Circuit) String() string {
	return c.text
}

func (c *Circuit) namesOf(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.names[id]
	}
	return out
}

func (c *Circuit) namesOfEdges(edges []edge) []string {
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = c.names[e.to]
	}
	return out
}
