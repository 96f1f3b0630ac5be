package httputil

import (
	"net/http"
	"net/url"
	"time"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for target sites
	API      *http.Client // direct, for archive/DB endpoints
}

func NewClients(proxyURL string, timeout time.Duration) *Clients {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	scraping := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}
