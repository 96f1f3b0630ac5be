package extract

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// decodeJSON parses a script block's text into a generic tree. Malformed
// blocks are skipped by the caller, never surfaced.
func decodeJSON(txt string) (any, bool) {
	txt = strings.TrimSpace(txt)
	if txt == "" {
		return nil, false
	}
	var node any
	if err := json.Unmarshal([]byte(txt), &node); err != nil {
		return nil, false
	}
	return node, true
}

// walk runs visit over every object in a decoded JSON tree, parent
// before children. Map keys are traversed in sorted order so that a
// first-alias-wins walk over the same page always lands on the same
// values; recursion is bounded by the tree's own depth.
func walk(node any, visit func(map[string]any)) {
	switch n := node.(type) {
	case map[string]any:
		visit(n)
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(n[k], visit)
		}
	case []any:
		for _, v := range n {
			walk(v, visit)
		}
	}
}

// scriptJSON collects and decodes every script block matching the
// selector. HTML comment wrappers are stripped first; zillow wraps its
// shared-data payloads in them.
func scriptJSON(doc *goquery.Document, selector string) []any {
	var payloads []any
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		txt := s.Text()
		txt = strings.ReplaceAll(txt, "<!--", "")
		txt = strings.ReplaceAll(txt, "-->", "")
		if node, ok := decodeJSON(txt); ok {
			payloads = append(payloads, node)
		}
	})
	return payloads
}
