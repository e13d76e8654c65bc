package domain

import (
	"regexp"
	"strings"
)

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// CanonicalName normalizes a distribution name: lower case, with every run of
// '-', '_' and '.' collapsed to a single '-'.
func CanonicalName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(name), "-")
}
