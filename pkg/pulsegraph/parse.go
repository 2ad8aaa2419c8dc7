package pulsegraph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// separator splits a module name from its destination list.
const separator = "->"

// MaxLineLength is the longest declaration line Parse accepts, in bytes.
const MaxLineLength = 1 << 20

// Parse reads module declarations, one per line:
//
//	[prefix]name -> dest1, dest2, ...
//
// where prefix is '%' (FlipFlop), '&' (Conjunction) or absent (Broadcast).
// Blank lines are skipped and surrounding whitespace is ignored. The first
// malformed line aborts parsing with a *ParseError, as does a line longer
// than MaxLineLength.
func Parse(r io.Reader) (*Network, error) {
	n := NewNetwork()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	line := 0
	for sc.Scan() {
		line++
		if err := parseLine(n, line, sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: line + 1, Err: ErrLineTooLong}
		}
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	return n, nil
}

// ParseString parses declarations from a string. See Parse.
func ParseString(s string) (*Network, error) {
	return Parse(strings.NewReader(s))
}

// ParseLines parses one declaration per slice element. See Parse.
func ParseLines(lines []string) (*Network, error) {
	n := NewNetwork()
	for i, text := range lines {
		if err := parseLine(n, i+1, text); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Build parses lines and compiles the result with the default entry.
func Build(lines []string) (*Circuit, error) {
	n, err := ParseLines(lines)
	if err != nil {
		return nil, err
	}
	return n.Compile()
}

func parseLine(n *Network, line int, raw string) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	fail := func(err error) error {
		return &ParseError{Line: line, Text: text, Err: err}
	}

	head, tail, ok := strings.Cut(text, separator)
	if !ok {
		return fail(ErrMissingSeparator)
	}

	head = strings.TrimSpace(head)
	if head == "" {
		return fail(ErrInvalidName)
	}
	kind := Broadcast
	switch c := head[0]; {
	case c == '%':
		kind, head = FlipFlop, head[1:]
	case c == '&':
		kind, head = Conjunction, head[1:]
	case !isAlnum(c):
		return fail(ErrUnknownPrefix)
	}
	if !validName(head) {
		return fail(ErrInvalidName)
	}
	if n.HasModule(head) {
		return fail(fmt.Errorf("%w: %s", ErrDuplicateModule, head))
	}

	var dests []string
	if tail = strings.TrimSpace(tail); tail != "" {
		for _, d := range strings.Split(tail, ",") {
			d = strings.TrimSpace(d)
			if !validName(d) {
				return fail(fmt.Errorf("%w: destination %q", ErrInvalidName, d))
			}
			dests = append(dests, d)
		}
	}

	n.AddModule(head, kind, dests...)
	return nil
}
