package marker

type parser struct {
	src  string
	toks []token
	pos  int
}

// parse builds the expression tree for src.
//
//	or         := and ("or" and)*
//	and        := atom ("and" atom)*
//	atom       := "(" or ")" | comparison
//	comparison := operand op operand
//	operand    := identifier | string
//	op         := "==" | "!=" | "<" | "<=" | ">" | ">=" | "in" | "not" "in"
func parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, syntaxError(src, 0, "empty expression")
	}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, syntaxError(src, tok.offset, "unexpected trailing input")
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAtom() (Node, error) {
	if p.peek().kind != tokLParen {
		return p.parseComparison()
	}
	open := p.next()
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokRParen {
		if tok.kind == tokEOF {
			return nil, syntaxError(p.src, open.offset, "unbalanced parenthesis")
		}
		return nil, syntaxError(p.src, tok.offset, "expected ')'")
	}
	p.next()
	return n, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.parseOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	tok := p.peek()
	switch tok.kind {
	case tokIdent:
		p.next()
		return Operand{Value: tok.text, Variable: true}, nil
	case tokString:
		p.next()
		return Operand{Value: tok.text}, nil
	default:
		return Operand{}, syntaxError(p.src, tok.offset, "expected variable or quoted string")
	}
}

func (p *parser) parseOp() (Op, error) {
	tok := p.peek()
	switch tok.kind {
	case tokOp:
		p.next()
		return Op(tok.text), nil
	case tokIn:
		p.next()
		return OpIn, nil
	case tokNot:
		p.next()
		if p.peek().kind != tokIn {
			return "", syntaxError(p.src, tok.offset, "expected 'in' after 'not'")
		}
		p.next()
		return OpNotIn, nil
	default:
		return "", syntaxError(p.src, tok.offset, "expected comparison operator")
	}
}
