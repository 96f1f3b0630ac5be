// Package harvest pulls listing detail URLs out of saved search pages.
// Output feeds the detail fetcher; the extraction core never sees it.
package harvest

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	redfinDetailRe = regexp.MustCompile(`(?i)^https?://(?:www\.)?redfin\.com/.+/home/(\d+)`)
	zillowDetailRe = regexp.MustCompile(`(?i)^https?://(?:www\.)?zillow\.com/homedetails/.+?(\d+)_zpid/?`)
)

// ListingURL is one harvested detail-page target, deduplicated by
// (platform, external id).
type ListingURL struct {
	PlatformID string `json:"platform_id"`
	SourceURL  string `json:"source_url"`
	ExternalID string `json:"external_property_id"`
}

// CollectLinks gathers candidate hrefs from a search page: every anchor
// plus any "url" values inside the redfin __NEXT_DATA__ payload, which
// carries more results than the rendered list. Relative links resolve
// against the platform the page came from (baseHint is its URL).
func CollectLinks(html []byte, baseHint string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	add := func(href string) {
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			base := baseFor(baseHint)
			if base == "" {
				return
			}
			if u, err := url.JoinPath(base, href); err == nil {
				href = u
			}
		}
		seen[href] = struct{}{}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			add(href)
		}
	})

	if txt := doc.Find(`script#__NEXT_DATA__[type="application/json"]`).Text(); txt != "" {
		var node any
		if err := json.Unmarshal([]byte(txt), &node); err == nil {
			collectURLValues(node, add)
		}
	}

	links := make([]string, 0, len(seen))
	for href := range seen {
		links = append(links, href)
	}
	sort.Strings(links)
	return links
}

// FilterListings keeps only detail-page URLs, deduplicated by
// (platform, external id). Input order is preserved for first-seen.
func FilterListings(links []string) []ListingURL {
	type key struct{ platform, id string }
	seen := make(map[key]struct{})
	var rows []ListingURL

	for _, href := range links {
		var platform, id string
		if m := redfinDetailRe.FindStringSubmatch(href); m != nil {
			platform, id = "redfin", m[1]
		} else if m := zillowDetailRe.FindStringSubmatch(href); m != nil {
			platform, id = "zillow", m[1]
		} else {
			continue
		}

		k := key{platform, id}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, ListingURL{
			PlatformID: platform,
			SourceURL:  href,
			ExternalID: id,
		})
	}

	return rows
}

func collectURLValues(node any, add func(string)) {
	switch n := node.(type) {
	case map[string]any:
		if u, ok := n["url"].(string); ok {
			add(u)
		}
		for _, v := range n {
			collectURLValues(v, add)
		}
	case []any:
		for _, v := range n {
			collectURLValues(v, add)
		}
	}
}

func baseFor(hint string) string {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "redfin.com"):
		return "https://www.redfin.com"
	case strings.Contains(h, "zillow.com"):
		return "https://www.zillow.com"
	default:
		return ""
	}
}
