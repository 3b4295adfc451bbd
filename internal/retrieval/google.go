package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/nap-verifier/internal/extract"
	"github.com/jonathan/nap-verifier/internal/types"
)

// DefaultResultsPerQuery is how many hits are requested per search. Only the top one is
// read, the rest are kept for the audit trail.
const DefaultResultsPerQuery = 5

// GoogleSearcher looks listings up through the Programmable Search (Custom Search JSON) API.
type GoogleSearcher struct {
	svc     *customsearch.Service
	cx      string
	num     int64
	limiter *rate.Limiter
}

// GoogleConfig configures the Custom Search backend.
type GoogleConfig struct {
	APIKey string
	CX     string
	// QPS bounds outgoing searches across all concurrent verifications. 0 means unlimited.
	QPS float64
	// ResultsPerQuery caps candidates per search, 1 to 10. 0 uses DefaultResultsPerQuery.
	ResultsPerQuery int
	// ClientOptions are appended after the API key, e.g. a test endpoint.
	ClientOptions []option.ClientOption
}

// NewGoogleSearcher creates a searcher. It returns an error when credentials are missing.
func NewGoogleSearcher(ctx context.Context, cfg GoogleConfig) (*GoogleSearcher, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, ErrNotConfigured
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.QPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), 1)
	}

	num := int64(DefaultResultsPerQuery)
	if cfg.ResultsPerQuery > 0 {
		num = int64(min(cfg.ResultsPerQuery, 10))
	}

	return &GoogleSearcher{
		svc:     svc,
		cx:      cfg.CX,
		num:     num,
		limiter: limiter,
	}, nil
}

// Search runs one query for the business restricted to the site.
func (g *GoogleSearcher) Search(ctx context.Context, q Query, site types.Site) (*Result, error) {
	query := BuildSearchQuery(q, site)
	result := &Result{SearchQuery: query}

	if err := g.limiter.Wait(ctx); err != nil {
		return result, fmt.Errorf("search rate limit wait: %w", err)
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(g.num).Lr("lang_ja").Context(ctx).Do()
	if err != nil {
		return result, fmt.Errorf("search failed: %w", err)
	}

	for _, item := range resp.Items {
		result.Candidates = append(result.Candidates, extract.Candidate{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
		})
	}
	return result, nil
}
