package domain

import (
	"strconv"
	"strings"
)

// Violation is a single structural defect found while loading a document.
type Violation struct {
	// Path locates the defect, e.g. "dependencies.foo.python.source".
	Path string
	Err  error
}

func (v Violation) Error() string {
	if v.Path == "" {
		return v.Err.Error()
	}
	return v.Path + ": " + v.Err.Error()
}

func (v Violation) Unwrap() error {
	return v.Err
}

// DocumentError reports every violation found in a document.
type DocumentError struct {
	Violations []Violation
}

// Add records a violation.
func (e *DocumentError) Add(path string, err error) {
	e.Violations = append(e.Violations, Violation{Path: path, Err: err})
}

// Len returns the number of recorded violations.
func (e *DocumentError) Len() int {
	return len(e.Violations)
}

// ErrOrNil returns e when it holds at least one violation, nil otherwise.
func (e *DocumentError) ErrOrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *DocumentError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid lock document: " + e.Violations[0].Error()
	}
	var b strings.Builder
	b.WriteString("invalid lock document: ")
	b.WriteString(strconv.Itoa(len(e.Violations)))
	b.WriteString(" violations")
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.Error())
	}
	return b.String()
}

// Unwrap exposes every violation so errors.Is matches any contained sentinel.
func (e *DocumentError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}
