// Link discovery for crawl --follow. Internal pages come from sitemap.xml
// when the site publishes one, otherwise from a breadth-first walk of <a> links.
package crawl

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/docpipe/core"
)

// DefaultMaxPages bounds a discovery walk.
const DefaultMaxPages = 25

// staticExtensions are never worth handing to the normalizer.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true, ".ico": true,
	".css": true, ".js": true, ".woff": true, ".woff2": true, ".ttf": true,
	".zip": true, ".gz": true, ".tar": true, ".pdf": true, ".mp4": true, ".mp3": true,
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type sitemapIndex struct {
	URLs []sitemapURL `xml:"url"`
}

// Discover returns up to maxPages internal URLs reachable from baseURL.
// baseURL itself is always first. All requests go through fetcher, so
// restricted schemes and failures are handled the same way as in a crawl.
func Discover(ctx context.Context, baseURL string, fetcher core.Fetcher, maxPages int) ([]string, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("parsing base URL %q: invalid", baseURL)
	}
	if IsRestricted(baseURL) {
		return []string{baseURL}, nil
	}
	domain := parsed.Host

	sitemap := fmt.Sprintf("%s://%s/sitemap.xml", parsed.Scheme, domain)
	if urls := fromSitemap(ctx, sitemap, baseURL, domain, fetcher, maxPages); len(urls) > 1 {
		return urls, nil
	}
	return fromLinks(ctx, baseURL, domain, fetcher, maxPages), nil
}

func fromSitemap(ctx context.Context, sitemap, baseURL, domain string, fetcher core.Fetcher, maxPages int) []string {
	outcome := fetcher.Fetch(ctx, sitemap)
	if outcome.Kind != core.Succeeded {
		return nil
	}
	var index sitemapIndex
	if err := xml.Unmarshal([]byte(outcome.Body), &index); err != nil {
		return nil
	}

	q := NewQueue()
	q.Add(NormalizeURL(baseURL))
	for _, u := range index.URLs {
		if q.Len() >= maxPages {
			break
		}
		loc := strings.TrimSpace(u.Loc)
		if IsSameDomain(loc, domain) && !IsStaticAsset(loc) {
			q.Add(NormalizeURL(loc))
		}
	}
	return q.All()
}

func fromLinks(ctx context.Context, startURL, domain string, fetcher core.Fetcher, maxPages int) []string {
	q := NewQueue()
	q.Add(NormalizeURL(startURL))

	for q.HasNext() && q.Len() < maxPages {
		current := q.Next()
		outcome := fetcher.Fetch(ctx, current)
		if outcome.Kind != core.Succeeded || outcome.ContentType != core.ContentHTML {
			continue
		}
		for _, link := range extractLinks(outcome.Body, current) {
			if q.Len() >= maxPages {
				break
			}
			if IsSameDomain(link, domain) && !IsStaticAsset(link) {
				q.Add(NormalizeURL(link))
			}
		}
	}
	return q.All()
}

// extractLinks returns absolute href values from <a> tags.
func extractLinks(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveURL(href, base); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links
}

func resolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	for _, prefix := range []string{"mailto:", "javascript:", "tel:", "data:"} {
		if strings.HasPrefix(strings.ToLower(href), prefix) {
			return ""
		}
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}

// IsSameDomain reports whether rawURL is an http(s) URL on domain.
func IsSameDomain(rawURL, domain string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return strings.EqualFold(parsed.Host, domain)
}

// IsStaticAsset reports whether rawURL points at an image, stylesheet,
// script, font or archive.
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return staticExtensions[strings.ToLower(path.Ext(parsed.Path))]
}
