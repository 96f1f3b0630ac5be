// Package extract turns saved listing pages into PartialRecords using a
// ladder of strategies: platform-specific embedded JSON first, schema.org
// markup when that comes up empty, raw-text regex scans as the last net.
package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"homecrawl/models"
	"homecrawl/normalize"
)

// Extractor is one extraction strategy over an already-parsed page.
// Implementations never fail: a page with nothing recognizable yields a
// PartialRecord with only the platform set.
type Extractor interface {
	Platform() models.Platform
	Extract(doc *goquery.Document, htmlText string) *models.PartialRecord
}

const yearBuiltMin = 1700

// fillFloat sets *dst from v only when still unset and parseable.
// All fill helpers share this contract; it is what keeps a walk
// first-alias-wins and the merge monotonic.
func fillFloat(dst **float64, v any) {
	if *dst != nil {
		return
	}
	if f := normalize.ParseFloat(v); f != nil {
		*dst = f
	}
}

// fillCoord is fillFloat without the lenient string cleanup: coordinate
// strings keep their sign, so they get a strict parse instead.
func fillCoord(dst **float64, v any) {
	if *dst != nil {
		return
	}
	switch x := v.(type) {
	case float64:
		*dst = &x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*dst = &f
		}
	}
}

func fillInt(dst **int, v any) {
	if *dst != nil {
		return
	}
	if n := normalize.ParseInt(v); n != nil {
		*dst = n
	}
}

func fillString(dst **string, v any) {
	if *dst != nil {
		return
	}
	if s := stringValue(v); s != "" {
		*dst = &s
	}
}

func fillYear(dst **int, v any) {
	if *dst != nil {
		return
	}
	n := normalize.ParseInt(v)
	if n == nil || *n < yearBuiltMin || *n > time.Now().Year() {
		return
	}
	*dst = n
}

// fillExternalID accepts only purely numeric values; keys like "id" also
// carry slugs and UUIDs on these sites.
func fillExternalID(dst **string, v any) {
	if *dst != nil {
		return
	}
	s := stringValue(v)
	if normalize.DigitsOnly(s) {
		*dst = &s
	}
}

// stringValue renders a scalar JSON value as a trimmed string. Integral
// floats format without the decimal tail so postal codes and ids decoded
// as numbers round-trip cleanly.
func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func hasAnyKey(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
