// Package retrieval is the web-search collaborator that supplies raw candidate text for a
// (business, site) pair. It performs no matching.
package retrieval

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/jonathan/nap-verifier/internal/extract"
	"github.com/jonathan/nap-verifier/internal/types"
)

// ErrNotConfigured is returned by every search when no search backend is configured.
var ErrNotConfigured = errors.New("retrieval service is not configured")

// Query is what is known about the business being looked up.
type Query struct {
	CanonicalName string
	Prefecture    string
	City          string
	Address       string
}

// QueryFor builds the lookup for a canonical record.
func QueryFor(r *types.CanonicalRecord) Query {
	return Query{
		CanonicalName: r.Name,
		Prefecture:    r.Address.Prefecture,
		City:          r.Address.City,
		Address:       r.Address.Full(),
	}
}

// Result is the search string that was sent plus the candidates that came back.
type Result struct {
	SearchQuery string
	Candidates  []extract.Candidate
}

// Searcher returns zero or more candidates for a business on one site.
type Searcher interface {
	Search(ctx context.Context, q Query, site types.Site) (*Result, error)
}

// Unconfigured is the Searcher used when no backend credentials are present.
// Each attempt fails on its own so a batch degrades instead of crashing.
type Unconfigured struct{}

// Search always fails with ErrNotConfigured.
func (Unconfigured) Search(_ context.Context, q Query, site types.Site) (*Result, error) {
	return &Result{SearchQuery: BuildSearchQuery(q, site)}, ErrNotConfigured
}

// BuildSearchQuery expands the site's search template, or restricts a name+locality
// search to the site's domain. Template placeholders: {name} {prefecture} {city} {address} {site}.
func BuildSearchQuery(q Query, site types.Site) string {
	domain := siteDomain(site.URL)
	if site.SearchTemplate != "" {
		return strings.NewReplacer(
			"{name}", q.CanonicalName,
			"{prefecture}", q.Prefecture,
			"{city}", q.City,
			"{address}", q.Address,
			"{site}", domain,
		).Replace(site.SearchTemplate)
	}

	parts := []string{`"` + q.CanonicalName + `"`}
	if locality := q.Prefecture + q.City; locality != "" {
		parts = append(parts, locality)
	}
	if domain != "" {
		parts = append(parts, "site:"+domain)
	}
	return strings.Join(parts, " ")
}

func siteDomain(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
