package scraper

import (
	"context"
	"fmt"

	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// FetchStatus classifies the outcome of a single GET.
type FetchStatus int

const (
	// FetchOK means a 2xx response with a body.
	FetchOK FetchStatus = iota
	// FetchHTTPError means the server answered with a non-2xx status.
	FetchHTTPError
	// FetchTransportError means the request never produced a response.
	FetchTransportError
)

// FetchResult is the uniform outcome type for page and image requests.
// Failures are values, never returned errors, so every consumer applies
// the same success/failure branching.
type FetchResult struct {
	Status      FetchStatus
	StatusCode  int
	Body        []byte
	ContentType string
	Err         error
}

// ErrorLabel names the transport failure class for logs and records.
func (r FetchResult) ErrorLabel() string {
	return errorTypeLabel(classifyError(r.Err, r.StatusCode))
}

type cachedPage struct {
	body        []byte
	contentType string
}

// Fetcher issues single GET requests with a fixed timeout and a
// generic browser identification header. Successful product-page
// bodies are kept in a bounded LRU so alternate-edition loops that
// revisit a page skip the network.
type Fetcher struct {
	client  *resty.Client
	cache   *lru.Cache[string, cachedPage]
	metrics *Metrics
}

// NewFetcher builds a fetcher from cfg. A zero cache size disables the
// page cache.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	f := &Fetcher{
		client:  client,
		metrics: metrics,
	}

	if cfg.PageCacheSize > 0 {
		cache, err := lru.New[string, cachedPage](cfg.PageCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create page cache: %w", err)
		}
		f.cache = cache
	}

	return f, nil
}

// FetchPage GETs a product page, consulting the cache first.
func (f *Fetcher) FetchPage(ctx context.Context, url string) FetchResult {
	if f.cache != nil {
		if page, ok := f.cache.Get(url); ok {
			f.metrics.IncCacheHit()
			return FetchResult{Status: FetchOK, StatusCode: 200, Body: page.body, ContentType: page.contentType}
		}
	}

	result := f.get(ctx, url, "page")
	if result.Status == FetchOK && f.cache != nil {
		f.cache.Add(url, cachedPage{body: result.Body, contentType: result.ContentType})
	}
	return result
}

// FetchImage GETs an image resource. Images bypass the page cache.
func (f *Fetcher) FetchImage(ctx context.Context, url string) FetchResult {
	return f.get(ctx, url, "image")
}

func (f *Fetcher) get(ctx context.Context, url, kind string) FetchResult {
	f.metrics.IncRequest(kind)

	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.metrics.IncError(errorTypeLabel(classifyError(err, 0)))
		return FetchResult{Status: FetchTransportError, Err: err}
	}

	f.metrics.ObserveDuration(res.Time())

	if !res.IsSuccess() {
		code := res.StatusCode()
		f.metrics.IncError(errorTypeLabel(classifyError(nil, code)))
		return FetchResult{
			Status:     FetchHTTPError,
			StatusCode: code,
			Body:       res.Body(),
			Err:        fmt.Errorf("http status %d", code),
		}
	}

	return FetchResult{
		Status:      FetchOK,
		StatusCode:  res.StatusCode(),
		Body:        res.Body(),
		ContentType: res.Header().Get("Content-Type"),
	}
}
