package marker

import "strings"

// Op is a comparison operator.
type Op string

// Supported comparison operators.
const (
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpIn           Op = "in"
	OpNotIn        Op = "not in"
)

// Node is a node of a parsed marker expression tree.
// It is one of *Or, *And or *Comparison.
type Node interface {
	String() string
	eval(env Environment) (bool, error)
}

// Or is a disjunction. The right side is only evaluated when the left side is false.
type Or struct {
	Left  Node
	Right Node
}

// And is a conjunction. The right side is only evaluated when the left side is true.
type And struct {
	Left  Node
	Right Node
}

// Comparison compares two operands.
type Comparison struct {
	Left  Operand
	Op    Op
	Right Operand
}

// Operand is either an environment variable reference or a quoted literal.
type Operand struct {
	Value    string
	Variable bool
}

func (o *Or) String() string {
	return o.Left.String() + " or " + o.Right.String()
}

func (a *And) String() string {
	return wrapOr(a.Left) + " and " + wrapOr(a.Right)
}

func (c *Comparison) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

func (o Operand) String() string {
	if o.Variable {
		return o.Value
	}
	if strings.Contains(o.Value, "'") {
		return `"` + o.Value + `"`
	}
	return quote(o.Value)
}

func wrapOr(n Node) string {
	if _, ok := n.(*Or); ok {
		return "(" + n.String() + ")"
	}
	return n.String()
}
