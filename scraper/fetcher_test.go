package scraper

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/aluiziolira/go-wheelers-scraper/config"
	"github.com/jarcoal/httpmock"
)

func newTestFetcher(t *testing.T, cfg *config.Config) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	fetcher, err := NewFetcher(cfg, NewMetrics())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	transport := httpmock.NewMockTransport()
	fetcher.client.SetTransport(transport)
	return fetcher, transport
}

func TestFetchPageSuccess(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/123",
		httpmock.NewStringResponder(200, "<html></html>"))

	result := fetcher.FetchPage(context.Background(), "http://example.test/product/123")
	if result.Status != FetchOK {
		t.Fatalf("status = %v, want FetchOK (err %v)", result.Status, result.Err)
	}
	if string(result.Body) != "<html></html>" {
		t.Fatalf("body = %q", result.Body)
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/404",
		httpmock.NewStringResponder(404, "not found"))

	result := fetcher.FetchPage(context.Background(), "http://example.test/product/404")
	if result.Status != FetchHTTPError {
		t.Fatalf("status = %v, want FetchHTTPError", result.Status)
	}
	if result.StatusCode != 404 {
		t.Fatalf("status code = %d, want 404", result.StatusCode)
	}
}

func TestFetchPageTransportError(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/down",
		httpmock.NewErrorResponder(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}))

	result := fetcher.FetchPage(context.Background(), "http://example.test/product/down")
	if result.Status != FetchTransportError {
		t.Fatalf("status = %v, want FetchTransportError", result.Status)
	}
	if result.Err == nil {
		t.Fatal("transport failures must carry the underlying error")
	}
	if got := result.ErrorLabel(); got != "connection" {
		t.Fatalf("error label = %q, want connection", got)
	}
}

func TestFetchPageCachesSuccessfulBodies(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/cached",
		httpmock.NewStringResponder(200, "body"))

	for i := 0; i < 3; i++ {
		result := fetcher.FetchPage(context.Background(), "http://example.test/product/cached")
		if result.Status != FetchOK {
			t.Fatalf("fetch %d failed: %v", i, result.Err)
		}
	}

	if calls := transport.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1 (cache should serve repeats)", calls)
	}
}

func TestFetchImageBypassesCache(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/cover.jpg",
		httpmock.NewStringResponder(200, "bytes"))

	fetcher.FetchImage(context.Background(), "http://example.test/cover.jpg")
	fetcher.FetchImage(context.Background(), "http://example.test/cover.jpg")

	if calls := transport.GetTotalCallCount(); calls != 2 {
		t.Fatalf("network calls = %d, want 2 (images are never cached)", calls)
	}
}

func TestFetchPageErrorsNotCached(t *testing.T) {
	fetcher, transport := newTestFetcher(t, nil)
	transport.RegisterResponder("GET", "http://example.test/product/flaky",
		httpmock.NewStringResponder(500, "boom"))

	fetcher.FetchPage(context.Background(), "http://example.test/product/flaky")
	fetcher.FetchPage(context.Background(), "http://example.test/product/flaky")

	if calls := transport.GetTotalCallCount(); calls != 2 {
		t.Fatalf("network calls = %d, want 2 (failures must not be cached)", calls)
	}
}
