package marker

import "go.trai.ch/zerr"

var (
	// ErrSyntax is returned when a marker expression cannot be parsed.
	ErrSyntax = zerr.New("marker syntax error")
	// ErrEvaluation is returned when a parsed marker cannot be evaluated against an environment.
	ErrEvaluation = zerr.New("marker evaluation error")
)

const nearWidth = 24

func syntaxError(src string, offset int, msg string) error {
	near := "end of expression"
	if offset < len(src) {
		near = src[offset:]
		if len(near) > nearWidth {
			near = near[:nearWidth]
		}
	}
	err := zerr.Wrap(ErrSyntax, msg+" near "+quote(near))
	err = zerr.With(err, "expression", src)
	err = zerr.With(err, "offset", offset)
	return zerr.With(err, "near", near)
}

func evaluationError(msg string, variable string) error {
	err := zerr.Wrap(ErrEvaluation, msg)
	return zerr.With(err, "variable", variable)
}

func quote(s string) string {
	return "'" + s + "'"
}
