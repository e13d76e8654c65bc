package marker

import "strings"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokString
	tokIdent
	tokOp
	tokAnd
	tokOr
	tokIn
	tokNot
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// lex splits src into tokens. The returned slice always ends with tokEOF.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", offset: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", offset: i})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(src[i+1:], c)
			if end < 0 {
				return nil, syntaxError(src, i, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: src[i+1 : i+1+end], offset: i})
			i += end + 2
		case c == '=' || c == '!' || c == '<' || c == '>':
			op, n := lexOperator(src[i:])
			if n == 0 {
				return nil, syntaxError(src, i, "invalid operator")
			}
			toks = append(toks, token{kind: tokOp, text: op, offset: i})
			i += n
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			word := src[start:i]
			toks = append(toks, token{kind: keywordKind(word), text: word, offset: start})
		default:
			return nil, syntaxError(src, i, "unexpected character")
		}
	}
	return append(toks, token{kind: tokEOF, offset: len(src)}), nil
}

func lexOperator(s string) (string, int) {
	if len(s) >= 2 {
		switch s[:2] {
		case "==", "!=", "<=", ">=":
			return s[:2], 2
		}
	}
	switch s[0] {
	case '<', '>':
		return s[:1], 1
	}
	return "", 0
}

func keywordKind(word string) tokenKind {
	switch word {
	case "and":
		return tokAnd
	case "or":
		return tokOr
	case "in":
		return tokIn
	case "not":
		return tokNot
	default:
		return tokIdent
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}
