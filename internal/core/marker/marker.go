// Package marker parses and evaluates environment marker expressions.
//
// A marker is a boolean expression over comparisons between environment
// variables and quoted literals, combined with "and", "or" and parentheses.
// "and" binds tighter than "or" and both are left-associative. Version-like
// variables such as python_version compare by dotted-integer order, every
// other operand compares as a plain string.
package marker

import (
	"sync"
)

// Marker is a parsed marker expression. A nil *Marker is an absent marker and
// always evaluates to true.
type Marker struct {
	src  string
	root Node
}

// Parse parses src into a Marker.
func Parse(src string) (*Marker, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Marker{src: src, root: root}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(src string) *Marker {
	m, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return m
}

// Evaluate evaluates the marker against env.
func (m *Marker) Evaluate(env Environment) (bool, error) {
	if m == nil {
		return true, nil
	}
	return m.root.eval(env)
}

// Source returns the expression text the marker was parsed from.
func (m *Marker) Source() string {
	if m == nil {
		return ""
	}
	return m.src
}

// Root returns the expression tree.
func (m *Marker) Root() Node {
	if m == nil {
		return nil
	}
	return m.root
}

// String returns the canonical form of the expression.
func (m *Marker) String() string {
	if m == nil {
		return ""
	}
	return m.root.String()
}

// Evaluator parses and evaluates marker source strings, memoizing the parsed
// tree per distinct string. It is safe for concurrent use.
type Evaluator struct {
	parsed sync.Map
}

// NewEvaluator creates an Evaluator with an empty cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

type parseResult struct {
	marker *Marker
	err    error
}

// Parse returns the parsed marker for src, consulting the cache first.
func (e *Evaluator) Parse(src string) (*Marker, error) {
	if v, ok := e.parsed.Load(src); ok {
		res := v.(parseResult)
		return res.marker, res.err
	}
	m, err := Parse(src)
	v, _ := e.parsed.LoadOrStore(src, parseResult{marker: m, err: err})
	res := v.(parseResult)
	return res.marker, res.err
}

// Evaluate parses src and evaluates it against env.
func (e *Evaluator) Evaluate(src string, env Environment) (bool, error) {
	m, err := e.Parse(src)
	if err != nil {
		return false, err
	}
	return m.Evaluate(env)
}

var defaultEvaluator = NewEvaluator()

// Evaluate evaluates src against env using a shared memoizing Evaluator.
func Evaluate(src string, env Environment) (bool, error) {
	return defaultEvaluator.Evaluate(src, env)
}
