// Package index resolves indirect references against package index pages.
package index

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"go.trai.ch/lockres/internal/adapters/httpx"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/lockres/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

// Client implements ports.IndexClient for simple and find-links sources.
type Client struct {
	http    *httpx.Client
	cache   ports.IndexCache
	metrics ports.Metrics
	group   singleflight.Group
}

// New creates a Client. cache and metrics may be nil.
func New(http *httpx.Client, cache ports.IndexCache, metrics ports.Metrics) *Client {
	return &Client{http: http, cache: cache, metrics: metrics}
}

// FetchIndex returns the artifact URL of name at version published by source.
// Identical concurrent lookups share one request.
func (c *Client) FetchIndex(ctx context.Context, source domain.EffectiveSource, name, version string) (string, error) {
	key := cacheKey(source, name, version)

	if c.cache != nil {
		if artifact, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			c.observe(true, nil)
			return artifact, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.lookup(ctx, source, name, version)
	})
	c.observe(false, err)
	if err != nil {
		return "", zerr.With(zerr.With(err, "name", name), "version", version)
	}
	artifact, _ := v.(string)

	if c.cache != nil {
		// A failed cache write only costs a future lookup.
		_ = c.cache.Put(ctx, key, artifact)
	}
	return artifact, nil
}

func (c *Client) observe(cached bool, err error) {
	if c.metrics != nil {
		c.metrics.ObserveIndexLookup(cached, err)
	}
}

func cacheKey(source domain.EffectiveSource, name, version string) string {
	return strings.Join([]string{string(source.Kind), source.URL, domain.CanonicalName(name), version}, "|")
}

// PageURL returns the page listing the artifacts of name.
func PageURL(source domain.EffectiveSource, name string) (string, error) {
	switch source.Kind {
	case domain.SourceSimple:
		return strings.TrimRight(source.URL, "/") + "/" + domain.CanonicalName(name) + "/", nil
	case domain.SourceFindLinks:
		return source.URL, nil
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidSource, "unsupported source kind"), "kind", string(source.Kind))
	}
}

func (c *Client) lookup(ctx context.Context, source domain.EffectiveSource, name, version string) (string, error) {
	page, err := PageURL(source, name)
	if err != nil {
		return "", err
	}
	body, err := c.http.Get(ctx, page)
	if err != nil {
		return "", err
	}
	links, err := ParseLinks(body, page)
	if err != nil {
		return "", err
	}
	for _, link := range links {
		if Matches(link.Filename, name, version) {
			return link.URL, nil
		}
	}
	return "", zerr.With(zerr.Wrap(domain.ErrNotFound, "no artifact for "+name+"=="+version), "page", page)
}

// Link is an artifact link of an index page.
type Link struct {
	Filename string
	// URL is absolute and carries no fragment.
	URL string
}

// ParseLinks extracts the anchors of an index page. Relative hrefs are
// resolved against pageURL.
func ParseLinks(body []byte, pageURL string) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid page url"), "url", pageURL)
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse index page"), "url", pageURL)
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if link, ok := newLink(n, base); ok {
				links = append(links, link)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links, nil
}

func newLink(n *html.Node, base *url.URL) (Link, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = attr.Val
		}
	}
	if href == "" {
		return Link{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""

	filename := strings.TrimSpace(text(n))
	if filename == "" {
		filename = abs.Path[strings.LastIndex(abs.Path, "/")+1:]
	}
	return Link{Filename: filename, URL: abs.String()}, true
}

func text(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

var sdistSuffixes = []string{".tar.gz", ".tar.bz2", ".tgz", ".zip"}

// Matches reports whether filename is an sdist or wheel of name at version.
func Matches(filename, name, version string) bool {
	want := domain.CanonicalName(name)

	if stem, ok := strings.CutSuffix(filename, ".whl"); ok {
		parts := strings.Split(stem, "-")
		return len(parts) >= 5 && domain.CanonicalName(parts[0]) == want && parts[1] == version
	}
	for _, suffix := range sdistSuffixes {
		stem, ok := strings.CutSuffix(filename, suffix)
		if !ok {
			continue
		}
		i := strings.LastIndex(stem, "-")
		if i <= 0 {
			return false
		}
		return domain.CanonicalName(stem[:i]) == want && stem[i+1:] == version
	}
	return false
}
