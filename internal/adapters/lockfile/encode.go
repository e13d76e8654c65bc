package lockfile

import (
	"bytes"
	"encoding/json"
	"io"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

const indent = "    "

// Marshal renders doc as JSON with sorted keys and four-space indentation.
func Marshal(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes doc to w. Object keys are sorted and non-ASCII text is kept as is.
func Encode(w io.Writer, doc *domain.Document) error {
	out := map[string]any{
		fieldDependencies: encodeNodes(doc),
	}
	if len(doc.Sources) > 0 {
		sources := make(map[string]any, len(doc.Sources))
		for id, src := range doc.Sources {
			sources[id] = map[string]string{
				fieldType: string(src.Kind),
				fieldURL:  src.URL,
			}
		}
		out[fieldSources] = sources
	}
	if len(doc.Validations) > 0 {
		validations := make(map[string][]string, len(doc.Validations))
		for key, entry := range doc.Validations {
			decls := make([]string, len(entry))
			for i, d := range entry {
				decls[i] = d.String()
			}
			validations[string(key)] = decls
		}
		out[fieldValidations] = validations
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return zerr.Wrap(err, "failed to encode lock document")
	}
	return nil
}

func encodeNodes(doc *domain.Document) map[string]any {
	nodes := make(map[string]any, len(doc.Nodes))
	for key, node := range doc.Nodes {
		edges := make(map[string]any, len(node.Edges))
		for target, m := range node.Edges {
			if m == nil {
				edges[string(target)] = nil
				continue
			}
			edges[string(target)] = m.Source()
		}
		entry := map[string]any{fieldDependencies: edges}
		if node.Satisfier != nil {
			entry[node.Satisfier.Ecosystem] = encodeSatisfier(node.Satisfier)
		}
		nodes[string(key)] = entry
	}
	return nodes
}

func encodeSatisfier(s *domain.Satisfier) map[string]any {
	out := map[string]any{fieldName: s.Name}
	switch s.Kind {
	case domain.SatisfierIndirect:
		out[fieldSource] = s.SourceID
		out[fieldVersion] = s.Version
	case domain.SatisfierDirect:
		out[fieldURL] = s.URL
	case domain.SatisfierEditable:
		out[fieldPath] = s.Path
		out[fieldEditable] = true
	case domain.SatisfierLocal:
		out[fieldPath] = s.Path
	}
	return out
}
