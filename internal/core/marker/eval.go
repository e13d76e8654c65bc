package marker

import "strings"

func (o *Or) eval(env Environment) (bool, error) {
	ok, err := o.Left.eval(env)
	if err != nil || ok {
		return ok, err
	}
	return o.Right.eval(env)
}

func (a *And) eval(env Environment) (bool, error) {
	ok, err := a.Left.eval(env)
	if err != nil || !ok {
		return ok, err
	}
	return a.Right.eval(env)
}

func (c *Comparison) eval(env Environment) (bool, error) {
	left, err := c.Left.resolve(env)
	if err != nil {
		return false, err
	}
	right, err := c.Right.resolve(env)
	if err != nil {
		return false, err
	}

	switch c.Op {
	case OpIn:
		return strings.Contains(right, left), nil
	case OpNotIn:
		return !strings.Contains(right, left), nil
	}

	var cmp int
	if variable, ok := c.versionVariable(); ok {
		cmp, err = compareVersions(left, right, variable)
		if err != nil {
			return false, err
		}
	} else {
		cmp = strings.Compare(left, right)
	}

	switch c.Op {
	case OpEqual:
		return cmp == 0, nil
	case OpNotEqual:
		return cmp != 0, nil
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpGreater:
		return cmp > 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	default:
		return false, evaluationError("unsupported operator "+quote(string(c.Op)), "")
	}
}

func (c *Comparison) versionVariable() (string, bool) {
	if c.Left.Variable && IsVersionVariable(c.Left.Value) {
		return c.Left.Value, true
	}
	if c.Right.Variable && IsVersionVariable(c.Right.Value) {
		return c.Right.Value, true
	}
	return "", false
}

func (o Operand) resolve(env Environment) (string, error) {
	if !o.Variable {
		return o.Value, nil
	}
	v, ok := env.Lookup(o.Value)
	if !ok {
		return "", evaluationError("unknown variable "+quote(o.Value), o.Value)
	}
	return v, nil
}
