// Package lockgen generates lock documents from compiled requirement files.
package lockgen

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/marker"
	"go.trai.ch/zerr"
)

// Candidate is one pinned requirement of a compiled requirement file.
type Candidate struct {
	Name    string
	Version string
	Hashes  []domain.Digest
	// Parents are the keys that require the candidate. The root key stands for
	// the input requirement file itself.
	Parents []domain.Key
	// Marker gates every edge from a parent, nil when unconditional.
	Marker *marker.Marker
}

// Key returns the dependency key of the candidate.
func (c Candidate) Key() domain.Key {
	return domain.Key(domain.CanonicalName(c.Name))
}

type logicalLine struct {
	text   string
	lineNo int
}

// logicalLines joins backslash continuations and drops blank lines.
func logicalLines(r io.Reader) ([]logicalLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lines []logicalLine
		curr  strings.Builder
		start int
		n     int
	)
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" && curr.Len() == 0 {
			continue
		}
		if curr.Len() == 0 {
			start = n
		}
		cont := strings.HasSuffix(line, `\`)
		if cont {
			line = strings.TrimSuffix(line, `\`)
		}
		if curr.Len() > 0 {
			curr.WriteByte(' ')
		}
		curr.WriteString(strings.TrimSpace(line))
		if cont {
			continue
		}
		lines = append(lines, logicalLine{text: curr.String(), lineNo: start})
		curr.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to read requirements")
	}
	if curr.Len() > 0 {
		lines = append(lines, logicalLine{text: curr.String(), lineNo: start})
	}
	return lines, nil
}

// Parse reads pip-compile output. Requirements are "name==version" optionally
// followed by "; marker" and "--hash=alg:digest" options. A "# via" comment,
// inline or on the following lines, names the parents of the preceding
// requirement; "-r <file>" parents map to the root key. A requirement without
// a "# via" comment is a top-level requirement.
func Parse(r io.Reader) ([]Candidate, error) {
	lines, err := logicalLines(r)
	if err != nil {
		return nil, err
	}

	var (
		candidates []Candidate
		seen       = make(map[domain.Key]int)
		viaOpen    bool
	)
	last := func() *Candidate {
		if len(candidates) == 0 {
			return nil
		}
		return &candidates[len(candidates)-1]
	}

	for _, ll := range lines {
		if strings.HasPrefix(ll.text, "#") {
			comment := strings.TrimSpace(strings.TrimPrefix(ll.text, "#"))
			c := last()
			switch {
			case c == nil:
				viaOpen = false
			case comment == "via":
				viaOpen = true
			case strings.HasPrefix(comment, "via "):
				c.Parents = append(c.Parents, parseParents(comment[len("via "):])...)
				viaOpen = false
			case viaOpen && comment != "":
				c.Parents = append(c.Parents, parseParents(comment)...)
			default:
				viaOpen = false
			}
			continue
		}
		viaOpen = false
		if strings.HasPrefix(ll.text, "-") {
			// Options such as --index-url apply to the whole file.
			continue
		}

		cand, err := parseRequirement(ll)
		if err != nil {
			return nil, err
		}
		key := cand.Key()
		if prev, dup := seen[key]; dup {
			return nil, zerr.With(zerr.With(
				zerr.Wrap(domain.ErrInvalidRequirement, "duplicate requirement "+key.String()),
				"line", ll.lineNo), "previous_line", prev)
		}
		seen[key] = ll.lineNo
		candidates = append(candidates, cand)
	}

	for i := range candidates {
		if len(candidates[i].Parents) == 0 {
			candidates[i].Parents = []domain.Key{domain.RootKey}
		}
		candidates[i].Parents = dedupeKeys(candidates[i].Parents)
	}
	return candidates, nil
}

func parseRequirement(ll logicalLine) (Candidate, error) {
	text, comment, _ := strings.Cut(ll.text, "#")
	var cand Candidate

	fail := func(msg string) (Candidate, error) {
		return Candidate{}, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrInvalidRequirement, msg),
			"line", ll.lineNo), "text", ll.text)
	}

	var markerSrc string
	var reqParts []string
	for _, part := range strings.Fields(text) {
		if alg, ok := strings.CutPrefix(part, "--hash="); ok {
			d, valid := domain.ParseDigest(alg)
			if !valid {
				return fail("invalid hash " + strconv.Quote(alg))
			}
			cand.Hashes = append(cand.Hashes, d)
			continue
		}
		reqParts = append(reqParts, part)
	}

	req := strings.Join(reqParts, " ")
	req, markerSrc, _ = strings.Cut(req, ";")
	req = strings.ReplaceAll(req, " ", "")
	name, version, ok := strings.Cut(req, "==")
	if !ok {
		return fail("requirement is not pinned with ==")
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" || version == "" {
		return fail("requirement needs a name and a version")
	}
	cand.Name = name
	cand.Version = version
	if !cand.Key().Valid() || cand.Key().Kind() != domain.KindConcrete {
		return fail("invalid distribution name " + strconv.Quote(name))
	}

	if markerSrc = strings.TrimSpace(markerSrc); markerSrc != "" {
		m, err := marker.Parse(markerSrc)
		if err != nil {
			return Candidate{}, zerr.With(zerr.Wrap(err, "invalid requirement marker"), "line", ll.lineNo)
		}
		cand.Marker = m
	}

	if via, ok := strings.CutPrefix(strings.TrimSpace(comment), "via "); ok {
		cand.Parents = parseParents(via)
	}
	return cand, nil
}

// parseParents splits a "via" list. "-r file" entries are the root and "-c file"
// constraint entries are dropped.
func parseParents(list string) []domain.Key {
	var parents []domain.Key
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case strings.HasPrefix(p, "-r"):
			parents = append(parents, domain.RootKey)
		case strings.HasPrefix(p, "-c"):
		default:
			if i := strings.IndexAny(p, " ("); i > 0 {
				p = p[:i]
			}
			parents = append(parents, domain.Key(domain.CanonicalName(p)))
		}
	}
	return parents
}

func dedupeKeys(keys []domain.Key) []domain.Key {
	seen := make(map[domain.Key]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
