package marker

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

var errBadVersion = zerr.New("bad version")

// preReleaseTags maps PEP 440 pre-release spellings to their normal form.
// Longer spellings come first so "alpha" is not read as "a".
var preReleaseTags = []struct{ spelling, tag string }{
	{"preview", "rc"},
	{"alpha", "a"},
	{"beta", "b"},
	{"pre", "rc"},
	{"rc", "rc"},
	{"a", "a"},
	{"b", "b"},
	{"c", "rc"},
}

var postReleaseTags = []string{"post", "rev", "r"}

// version is a parsed PEP 440 style version. The release segments compare
// as integers with zero padding. pre holds a semver pre-release used only to
// order pre and dev releases.
type version struct {
	release []int
	pre     *semver.Version
	post    int
}

func parseVersion(raw string) (version, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "v")
	if local, _, ok := strings.Cut(s, "+"); ok {
		s = local
	}

	v := version{post: -1}
	for {
		end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
		if end == -1 {
			end = len(s)
		}
		if end == 0 {
			return version{}, errBadVersion
		}
		n, err := strconv.Atoi(s[:end])
		if err != nil {
			return version{}, errBadVersion
		}
		v.release = append(v.release, n)
		s = s[end:]
		if len(s) < 2 || s[0] != '.' || s[1] < '0' || s[1] > '9' {
			break
		}
		s = s[1:]
	}

	var pre []string
	for s != "" {
		s = strings.TrimLeft(s, ".-_")
		tag, n, rest, ok := suffix(s)
		if !ok {
			return version{}, errBadVersion
		}
		s = rest
		switch tag {
		case "post":
			v.post = n
		case "dev":
			// Dev releases sort before every pre-release of the same release.
			pre = append([]string{"0", strconv.Itoa(n)}, pre...)
		default:
			pre = append(pre, tag, strconv.Itoa(n))
		}
	}
	if len(pre) > 0 {
		sv, err := semver.NewVersion("0.0.0-" + strings.Join(pre, "."))
		if err != nil {
			return version{}, errBadVersion
		}
		v.pre = sv
	}
	return v, nil
}

// suffix reads one tagged segment such as "rc1", "post2" or "dev".
func suffix(s string) (tag string, n int, rest string, ok bool) {
	switch {
	case strings.HasPrefix(s, "dev"):
		tag, rest = "dev", s[len("dev"):]
	default:
		for _, t := range preReleaseTags {
			if strings.HasPrefix(s, t.spelling) {
				tag, rest = t.tag, s[len(t.spelling):]
				break
			}
		}
		if tag == "" {
			for _, p := range postReleaseTags {
				if strings.HasPrefix(s, p) {
					tag, rest = "post", s[len(p):]
					break
				}
			}
		}
	}
	if tag == "" {
		return "", 0, "", false
	}

	rest = strings.TrimLeft(rest, ".-_")
	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(rest)
	}
	if end > 0 {
		var err error
		if n, err = strconv.Atoi(rest[:end]); err != nil {
			return "", 0, "", false
		}
	}
	return tag, n, rest[end:], true
}

func (v version) compare(o version) int {
	width := max(len(v.release), len(o.release))
	for i := range width {
		if c := cmp.Compare(segment(v.release, i), segment(o.release, i)); c != 0 {
			return c
		}
	}

	switch {
	case v.pre != nil && o.pre == nil:
		return -1
	case v.pre == nil && o.pre != nil:
		return 1
	case v.pre != nil:
		if c := v.pre.Compare(o.pre); c != 0 {
			return c
		}
	}
	return cmp.Compare(v.post, o.post)
}

func segment(release []int, i int) int {
	if i < len(release) {
		return release[i]
	}
	return 0
}

// compareVersions orders a and b by dotted-integer semantics.
func compareVersions(a, b string, variable string) (int, error) {
	va, err := parseVersion(a)
	if err != nil {
		return 0, evaluationError("invalid version "+quote(a), variable)
	}
	vb, err := parseVersion(b)
	if err != nil {
		return 0, evaluationError("invalid version "+quote(b), variable)
	}
	return va.compare(vb), nil
}
