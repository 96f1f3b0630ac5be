package models

import "time"

// PageMeta is the minimal fetch metadata saved next to every raw page.
type PageMeta struct {
	RequestedURL string    `json:"requested_url"`
	FinalURL     string    `json:"final_url"`
	Status       int       `json:"status"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// RawPage is one saved detail or search page plus its metadata.
// Immutable once fetched.
type RawPage struct {
	Index int
	HTML  []byte
	Meta  PageMeta
}

// SourceURL returns the best URL for classification: the final URL after
// redirects when present, the requested URL otherwise.
func (p *RawPage) SourceURL() string {
	if p.Meta.FinalURL != "" {
		return p.Meta.FinalURL
	}
	return p.Meta.RequestedURL
}
