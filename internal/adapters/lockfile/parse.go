// Package lockfile reads, validates and writes lock documents.
package lockfile

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/zerr"
)

const (
	fieldDependencies = "dependencies"
	fieldSources      = "sources"
	fieldValidations  = "validations"

	fieldName     = "name"
	fieldSource   = "source"
	fieldVersion  = "version"
	fieldURL      = "url"
	fieldPath     = "path"
	fieldEditable = "editable"
	fieldType     = "type"
)

// Parse decodes raw into a Document. Every structural defect is collected into
// a single *domain.DocumentError.
func Parse(raw []byte) (*domain.Document, error) {
	derr := &domain.DocumentError{}

	top, err := decodeObject(raw)
	if err != nil {
		derr.Add("", zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return nil, derr
	}
	top = uniqueMembers(top, "", derr)

	doc := &domain.Document{
		Nodes:       make(map[domain.Key]*domain.Node),
		Sources:     make(map[string]domain.Source),
		Validations: make(map[domain.Key]domain.ValidationEntry),
		Fingerprint: Fingerprint(raw),
	}

	var deps, sources, validations json.RawMessage
	for _, m := range top {
		switch m.key {
		case fieldDependencies:
			deps = m.value
		case fieldSources:
			sources = m.value
		case fieldValidations:
			validations = m.value
		}
	}

	if deps == nil {
		derr.Add(fieldDependencies, zerr.Wrap(domain.ErrMalformedDocument, "missing required field"))
	} else {
		parseDependencies(doc, deps, derr)
	}
	if sources != nil {
		parseSources(doc, sources, derr)
	}
	if validations != nil {
		parseValidations(doc, validations, derr)
	}
	checkSourceReferences(doc, derr)

	if err := derr.ErrOrNil(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Fingerprint returns the xxhash of raw as 16 hex digits.
func Fingerprint(raw []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}

func parseDependencies(doc *domain.Document, raw json.RawMessage, derr *domain.DocumentError) {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(fieldDependencies, zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return
	}
	for _, m := range uniqueMembers(members, fieldDependencies, derr) {
		path := index(fieldDependencies, m.key)
		key := domain.Key(m.key)
		if !key.Valid() {
			derr.Add(path, zerr.With(zerr.Wrap(domain.ErrInvalidKey, "key "+quoteKey(m.key)+" matches no key pattern"), "key", m.key))
			continue
		}
		if node := parseNode(key, m.value, path, derr); node != nil {
			doc.Nodes[key] = node
		}
	}
}

func parseNode(key domain.Key, raw json.RawMessage, path string, derr *domain.DocumentError) *domain.Node {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(path, zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return nil
	}

	node := &domain.Node{Key: key, Edges: make(map[domain.Key]*marker.Marker)}
	for _, m := range uniqueMembers(members, path, derr) {
		switch m.key {
		case fieldDependencies:
			parseEdges(node, m.value, join(path, fieldDependencies), derr)
		case domain.EcosystemPython:
			if key.IsMeta() {
				derr.Add(join(path, m.key), zerr.With(
					zerr.Wrap(domain.ErrInvalidSatisfier, "meta-dependency "+quoteKey(string(key))+" cannot have a satisfier"),
					"key", string(key)))
				continue
			}
			node.Satisfier = parseSatisfier(m.value, join(path, m.key), derr)
		default:
			derr.Add(join(path, m.key), zerr.Wrap(domain.ErrMalformedDocument, "unknown field"))
		}
	}
	return node
}

func parseEdges(node *domain.Node, raw json.RawMessage, path string, derr *domain.DocumentError) {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(path, zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return
	}
	for _, m := range uniqueMembers(members, path, derr) {
		edgePath := index(path, m.key)
		target := domain.Key(m.key)
		if !target.Valid() {
			derr.Add(edgePath, zerr.With(zerr.Wrap(domain.ErrInvalidKey, "key "+quoteKey(m.key)+" matches no key pattern"), "key", m.key))
			continue
		}
		if isNull(m.value) {
			node.Edges[target] = nil
			continue
		}
		src, ok := decodeString(m.value)
		if !ok {
			derr.Add(edgePath, zerr.Wrap(domain.ErrInvalidMarker, "marker must be null or a string"))
			continue
		}
		mk, err := marker.Parse(src)
		if err != nil {
			derr.Add(edgePath, fmt.Errorf("%w: %w", domain.ErrInvalidMarker, err))
			continue
		}
		node.Edges[target] = mk
	}
}

func parseSatisfier(raw json.RawMessage, path string, derr *domain.DocumentError) *domain.Satisfier {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(path, zerr.Wrap(domain.ErrInvalidSatisfier, err.Error()))
		return nil
	}

	fields := make(map[string]string)
	editable, hasEditable := false, false
	valid := true
	for _, m := range uniqueMembers(members, path, derr) {
		switch m.key {
		case fieldName, fieldSource, fieldVersion, fieldURL, fieldPath:
			s, ok := decodeString(m.value)
			if !ok || s == "" {
				derr.Add(join(path, m.key), zerr.Wrap(domain.ErrInvalidSatisfier, "must be a non-empty string"))
				valid = false
				continue
			}
			fields[m.key] = s
		case fieldEditable:
			b, ok := decodeBool(m.value)
			if !ok {
				derr.Add(join(path, m.key), zerr.Wrap(domain.ErrInvalidSatisfier, "must be a boolean"))
				valid = false
				continue
			}
			editable, hasEditable = b, true
		default:
			derr.Add(join(path, m.key), zerr.Wrap(domain.ErrInvalidSatisfier, "unknown field"))
			valid = false
		}
	}

	if _, ok := fields[fieldName]; !ok {
		derr.Add(join(path, fieldName), zerr.Wrap(domain.ErrInvalidSatisfier, "missing required field"))
		valid = false
	}

	sat := &domain.Satisfier{
		Ecosystem: domain.EcosystemPython,
		Name:      fields[fieldName],
		Path:      fields[fieldPath],
		URL:       fields[fieldURL],
		SourceID:  fields[fieldSource],
		Version:   fields[fieldVersion],
	}

	_, hasSource := fields[fieldSource]
	_, hasVersion := fields[fieldVersion]
	_, hasURL := fields[fieldURL]
	_, hasPath := fields[fieldPath]

	forms := 0
	for _, present := range []bool{hasSource || hasVersion, hasURL, hasPath} {
		if present {
			forms++
		}
	}

	switch {
	case forms == 0:
		derr.Add(path, zerr.Wrap(domain.ErrInvalidSatisfier, "expected one of source/version, url or path"))
		return nil
	case forms > 1:
		derr.Add(path, zerr.Wrap(domain.ErrInvalidSatisfier, "fields of several forms are mixed"))
		return nil
	case hasEditable && !hasPath:
		derr.Add(join(path, fieldEditable), zerr.Wrap(domain.ErrInvalidSatisfier, "only valid with path"))
		return nil
	case hasSource != hasVersion:
		derr.Add(path, zerr.Wrap(domain.ErrInvalidSatisfier, "source and version must be given together"))
		return nil
	}

	switch {
	case hasSource:
		sat.Kind = domain.SatisfierIndirect
	case hasURL:
		sat.Kind = domain.SatisfierDirect
	case editable:
		sat.Kind = domain.SatisfierEditable
	default:
		sat.Kind = domain.SatisfierLocal
	}

	if !valid {
		return nil
	}
	return sat
}

func parseSources(doc *domain.Document, raw json.RawMessage, derr *domain.DocumentError) {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(fieldSources, zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return
	}
	for _, m := range uniqueMembers(members, fieldSources, derr) {
		path := index(fieldSources, m.key)
		fields, err := decodeObject(m.value)
		if err != nil {
			derr.Add(path, zerr.Wrap(domain.ErrInvalidSource, err.Error()))
			continue
		}

		src := domain.Source{ID: m.key}
		ok := true
		for _, f := range uniqueMembers(fields, path, derr) {
			switch f.key {
			case fieldType, fieldURL:
				s, valid := decodeString(f.value)
				if !valid || s == "" {
					derr.Add(join(path, f.key), zerr.Wrap(domain.ErrInvalidSource, "must be a non-empty string"))
					ok = false
					continue
				}
				if f.key == fieldType {
					src.Kind = domain.SourceKind(s)
				} else {
					src.URL = s
				}
			default:
				derr.Add(join(path, f.key), zerr.Wrap(domain.ErrInvalidSource, "unknown field"))
				ok = false
			}
		}
		if src.Kind == "" && ok {
			derr.Add(join(path, fieldType), zerr.Wrap(domain.ErrInvalidSource, "missing required field"))
			ok = false
		}
		if src.URL == "" && ok {
			derr.Add(join(path, fieldURL), zerr.Wrap(domain.ErrInvalidSource, "missing required field"))
			ok = false
		}
		// An invalid entry is still recorded so satisfiers naming it do not also report a dangling source.
		doc.Sources[m.key] = src
	}
}

func parseValidations(doc *domain.Document, raw json.RawMessage, derr *domain.DocumentError) {
	members, err := decodeObject(raw)
	if err != nil {
		derr.Add(fieldValidations, zerr.Wrap(domain.ErrMalformedDocument, err.Error()))
		return
	}
	for _, m := range uniqueMembers(members, fieldValidations, derr) {
		path := index(fieldValidations, m.key)
		key := domain.Key(m.key)

		var decls []string
		if err := json.Unmarshal(m.value, &decls); err != nil {
			derr.Add(path, zerr.Wrap(domain.ErrInvalidValidation, "must be a list of strings"))
			continue
		}

		if len(decls) == 0 {
			derr.Add(path, zerr.Wrap(domain.ErrInvalidValidation, "must declare at least one algorithm:digest"))
			continue
		}

		if _, ok := doc.Nodes[key]; !ok {
			derr.Add(path, zerr.With(zerr.Wrap(domain.ErrDanglingValidation, "key "+quoteKey(m.key)+" is not a dependency"), "key", m.key))
			continue
		}

		entry := make(domain.ValidationEntry, 0, len(decls))
		for i, decl := range decls {
			d, ok := domain.ParseDigest(decl)
			if !ok {
				derr.Add(fmt.Sprintf("%s[%d]", path, i), zerr.Wrap(domain.ErrInvalidValidation, "expected algorithm:digest, got "+quoteKey(decl)))
				continue
			}
			entry = append(entry, d)
		}
		doc.Validations[key] = entry
	}
}

func checkSourceReferences(doc *domain.Document, derr *domain.DocumentError) {
	for _, key := range doc.Keys() {
		sat := doc.Nodes[key].Satisfier
		if sat == nil || sat.Kind != domain.SatisfierIndirect {
			continue
		}
		if _, ok := doc.Sources[sat.SourceID]; !ok {
			path := join(index(fieldDependencies, string(key)), domain.EcosystemPython+"."+fieldSource)
			derr.Add(path, zerr.With(zerr.Wrap(domain.ErrDanglingSource, "source "+quoteKey(sat.SourceID)+" is not declared"), "source_id", sat.SourceID))
		}
	}
}
