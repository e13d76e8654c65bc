package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// KeyKind classifies a dependency key by the pattern it matches.
type KeyKind int

const (
	// KindInvalid is a key that matches no pattern.
	KindInvalid KeyKind = iota
	// KindConcrete is a plain package key such as "requests".
	KindConcrete
	// KindVariant is a platform variant such as "numpy;1".
	KindVariant
	// KindRootMeta is the empty root key.
	KindRootMeta
	// KindExtraMeta is an extra group such as "[test]".
	KindExtraMeta
)

func (k KeyKind) String() string {
	switch k {
	case KindConcrete:
		return "concrete"
	case KindVariant:
		return "variant"
	case KindRootMeta:
		return "root-meta"
	case KindExtraMeta:
		return "extra-meta"
	default:
		return "invalid"
	}
}

var (
	concreteKeyRe = regexp.MustCompile(`^[a-z0-9][-a-z0-9]*$`)
	variantKeyRe  = regexp.MustCompile(`^[a-z0-9][-a-z0-9]*;[0-9]+$`)
	extraKeyRe    = regexp.MustCompile(`^\[[a-z0-9][-a-z0-9]*\]$`)
)

// Key is a dependency key.
type Key string

// RootKey is the root meta-dependency.
const RootKey Key = ""

// Kind returns the pattern the key matches.
func (k Key) Kind() KeyKind {
	s := string(k)
	switch {
	case s == "":
		return KindRootMeta
	case concreteKeyRe.MatchString(s):
		return KindConcrete
	case variantKeyRe.MatchString(s):
		return KindVariant
	case extraKeyRe.MatchString(s):
		return KindExtraMeta
	default:
		return KindInvalid
	}
}

// Valid reports whether the key matches one of the key patterns.
func (k Key) Valid() bool {
	return k.Kind() != KindInvalid
}

// IsMeta reports whether the key names a meta-dependency.
func (k Key) IsMeta() bool {
	kind := k.Kind()
	return kind == KindRootMeta || kind == KindExtraMeta
}

// Base returns the package name of a concrete or variant key and the group name
// of an extra key. The root key has an empty base.
func (k Key) Base() string {
	s := string(k)
	switch k.Kind() {
	case KindVariant:
		return s[:strings.IndexByte(s, ';')]
	case KindExtraMeta:
		return s[1 : len(s)-1]
	case KindConcrete:
		return s
	default:
		return ""
	}
}

// Discriminant returns the variant number of a variant key and -1 otherwise.
func (k Key) Discriminant() int {
	if k.Kind() != KindVariant {
		return -1
	}
	s := string(k)
	n, err := strconv.Atoi(s[strings.IndexByte(s, ';')+1:])
	if err != nil {
		return -1
	}
	return n
}

// String returns the key, rendering the root as `""`.
func (k Key) String() string {
	if k == RootKey {
		return `""`
	}
	return string(k)
}

// ExtraKey returns the extra-meta key for name.
func ExtraKey(name string) Key {
	return Key("[" + name + "]")
}
