// Package validator checks artifacts against the digests declared in a lock document.
package validator

import (
	"bytes"
	"crypto/md5"  //nolint:gosec // md5 digests may be declared by lock documents
	"crypto/sha1" //nolint:gosec // sha1 digests may be declared by lock documents
	"crypto/sha256"
	_ "crypto/sha512"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
)

var hashers = map[string]func() hash.Hash{
	"sha256": digest.SHA256.Hash,
	"sha384": digest.SHA384.Hash,
	"sha512": digest.SHA512.Hash,
	"sha224": sha256.New224,
	"sha1":   sha1.New,
	"md5":    md5.New,
}

// Supported reports whether alg can be verified.
func Supported(alg string) bool {
	_, ok := hashers[strings.ToLower(alg)]
	return ok
}

// Validator verifies artifacts and reports each outcome to metrics.
type Validator struct {
	metrics ports.Metrics
}

// New creates a Validator. metrics may be nil.
func New(metrics ports.Metrics) *Validator {
	return &Validator{metrics: metrics}
}

// Validate reports whether artifact matches at least one digest declared for
// key. A key without declarations always passes.
func (v *Validator) Validate(key domain.Key, artifact []byte, doc *domain.Document) (bool, error) {
	return v.ValidateReader(key, bytes.NewReader(artifact), doc)
}

// ValidateFile is Validate over the contents of path.
func (v *Validator) ValidateFile(key domain.Key, path string, doc *domain.Document) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // path is an artifact produced by the downloader
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer func() { _ = f.Close() }()
	return v.ValidateReader(key, f, doc)
}

// ValidateReader is Validate over a stream. Every declared algorithm is
// computed in a single pass.
func (v *Validator) ValidateReader(key domain.Key, r io.Reader, doc *domain.Document) (bool, error) {
	ok, err := validate(key, r, doc)
	if v.metrics != nil {
		v.metrics.ObserveValidation(ok, err)
	}
	return ok, err
}

// Validate checks artifact without recording metrics.
func Validate(key domain.Key, artifact []byte, doc *domain.Document) (bool, error) {
	return validate(key, bytes.NewReader(artifact), doc)
}

func validate(key domain.Key, r io.Reader, doc *domain.Document) (bool, error) {
	entry, ok := doc.Validation(key)
	if !ok || len(entry) == 0 {
		return true, nil
	}

	sums := make(map[string]hash.Hash, len(entry))
	writers := make([]io.Writer, 0, len(entry))
	for _, d := range entry {
		alg := strings.ToLower(d.Algorithm)
		if _, seen := sums[alg]; seen {
			continue
		}
		newHash, ok := hashers[alg]
		if !ok {
			return false, zerr.With(zerr.With(
				zerr.Wrap(domain.ErrUnsupportedAlgorithm, "unsupported digest algorithm "+alg),
				"algorithm", alg), "key", string(key))
		}
		h := newHash()
		sums[alg] = h
		writers = append(writers, h)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), r); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to read artifact"), "key", string(key))
	}

	computed := make(map[string]string, len(sums))
	for alg, h := range sums {
		computed[alg] = digest.NewDigest(digest.Algorithm(alg), h).Encoded()
	}
	for _, d := range entry {
		if strings.EqualFold(computed[strings.ToLower(d.Algorithm)], d.Value) {
			return true, nil
		}
	}
	return false, nil
}

// Check verifies path and turns a mismatch into domain.ErrDigestMismatch.
func (v *Validator) Check(key domain.Key, path string, doc *domain.Document) error {
	ok, err := v.ValidateFile(key, path, doc)
	if err != nil {
		return err
	}
	if !ok {
		entry, _ := doc.Validation(key)
		declared := make([]string, 0, len(entry))
		for _, d := range entry {
			declared = append(declared, d.String())
		}
		return zerr.With(zerr.With(
			zerr.Wrap(domain.ErrDigestMismatch, "artifact matches none of the declared digests"),
			"key", string(key)), "declared", declared)
	}
	return nil
}
