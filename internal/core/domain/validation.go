package domain

import "strings"

// Digest is a declared (algorithm, hex digest) pair.
type Digest struct {
	Algorithm string
	Value     string
}

// ParseDigest parses an "algorithm:digest" declaration.
func ParseDigest(s string) (Digest, bool) {
	alg, val, ok := strings.Cut(s, ":")
	if !ok || alg == "" || val == "" {
		return Digest{}, false
	}
	return Digest{Algorithm: strings.ToLower(alg), Value: val}, true
}

func (d Digest) String() string {
	return d.Algorithm + ":" + d.Value
}

// ValidationEntry lists the digests an artifact may match. Any single match passes.
type ValidationEntry []Digest
