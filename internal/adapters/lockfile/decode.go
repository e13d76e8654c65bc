package lockfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

// member is one key/value pair of a JSON object, in document order.
type member struct {
	key   string
	value json.RawMessage
}

var errNotObject = zerr.New("expected a JSON object")

// decodeObject splits a JSON object into its members without losing repeated keys.
func decodeObject(raw []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, zerr.Wrap(err, "invalid JSON")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, zerr.Wrap(err, "invalid JSON")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, zerr.Wrap(err, "invalid JSON")
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, zerr.Wrap(err, "invalid JSON")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, zerr.New("unexpected data after JSON object")
	}
	return members, nil
}

// uniqueMembers reports repeated keys under path and keeps the first occurrence.
func uniqueMembers(members []member, path string, derr *domain.DocumentError) []member {
	seen := make(map[string]struct{}, len(members))
	out := make([]member, 0, len(members))
	for _, m := range members {
		if _, dup := seen[m.key]; dup {
			derr.Add(path, zerr.With(zerr.Wrap(domain.ErrDuplicateKey, "repeated key "+quoteKey(m.key)), "key", m.key))
			continue
		}
		seen[m.key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func quoteKey(k string) string {
	b, _ := json.Marshal(k)
	return string(b)
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func index(path, key string) string {
	return path + "[" + quoteKey(key) + "]"
}
