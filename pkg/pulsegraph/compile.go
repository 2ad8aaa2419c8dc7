package pulsegraph

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Compile validates the network and creates an immutable Circuit.
// Multiple validation errors are joined together.
//
// Validation checks:
//  1. Entry point must be set
//  2. Entry point must be a declared module
//
// Destinations that were never declared become terminals. Declared modules
// that cannot be reached from the entry are logged as warnings but do not
// fail compilation.
func (n *Network) Compile() (*Circuit, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var errs []error
	if n.entry == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, ok := n.declared[n.entry]; !ok {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, n.entry))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	c := n.buildCircuit()
	c.warnUnreachable()
	return c, nil
}

// buildCircuit interns module names and resolves edges.
//
// Declared modules take ids 0..len(decls)-1 in declaration order; undeclared
// destinations follow in first-seen order.
func (n *Network) buildCircuit() *Circuit {
	c := &Circuit{
		index:    make(map[string]int, len(n.decls)),
		declared: len(n.decls),
	}
	intern := func(name string, kind Kind) int {
		if id, ok := c.index[name]; ok {
			return id
		}
		id := len(c.names)
		c.index[name] = id
		c.names = append(c.names, name)
		c.kinds = append(c.kinds, kind)
		return id
	}
	for _, d := range n.decls {
		intern(d.name, d.kind)
	}
	for _, d := range n.decls {
		for _, dest := range d.dests {
			intern(dest, Terminal)
		}
	}

	size := len(c.names)
	c.edges = make([][]edge, size)
	c.inputs = make([][]int, size)
	c.preds = make([][]int, size)

	// Second pass: every edge into a conjunction registers its source as a
	// tracked input. slots maps (conjunction, source) to a memory slot.
	slots := make([]map[int]int, size)
	for src, d := range n.decls {
		for _, dest := range d.dests {
			to := c.index[dest]
			if !containsID(c.preds[to], src) {
				c.preds[to] = append(c.preds[to], src)
			}
			if c.kinds[to] != Conjunction {
				continue
			}
			if slots[to] == nil {
				slots[to] = make(map[int]int)
			}
			if _, seen := slots[to][src]; !seen {
				slots[to][src] = len(c.inputs[to])
				c.inputs[to] = append(c.inputs[to], src)
			}
		}
	}

	for src, d := range n.decls {
		out := make([]edge, len(d.dests))
		for i, dest := range d.dests {
			to := c.index[dest]
			slot := -1
			if c.kinds[to] == Conjunction {
				slot = slots[to][src]
			}
			out[i] = edge{to: to, slot: slot}
		}
		c.edges[src] = out
	}

	c.entry = c.index[n.entry]
	c.text = canonicalText(n.decls)
	c.digest = strconv.FormatUint(xxhash.Sum64String(c.text+"@"+n.entry), 16)
	return c
}

// warnUnreachable logs declared modules not reachable from the entry.
func (c *Circuit) warnUnreachable() {
	reachable := c.reachableFrom(c.entry)
	for id := 0; id < c.declared; id++ {
		if !reachable[id] {
			slog.Warn("module is unreachable from entry",
				"module", c.names[id],
				"entry", c.names[c.entry])
		}
	}
}

// reachableFrom returns the modules reachable from start, start included.
func (c *Circuit) reachableFrom(start int) []bool {
	seen := make([]bool, len(c.names))
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range c.edges[current] {
			if !seen[e.to] {
				seen[e.to] = true
				queue = append(queue, e.to)
			}
		}
	}
	return seen
}

// upstreamOf returns the modules with a path to start, start included.
// The stop module is neither included nor traversed.
func (c *Circuit) upstreamOf(start, stop int) []bool {
	seen := make([]bool, len(c.names))
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, p := range c.preds[current] {
			if p != stop && !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return seen
}

func canonicalText(decls []declaration) string {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d.kind.prefix())
		b.WriteString(d.name)
		b.WriteString(" -> ")
		b.WriteString(strings.Join(d.dests, ", "))
		b.WriteByte('\n')
	}
	return b.String()
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
