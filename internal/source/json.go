package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

const (
	jsonSourceName   = "json"
	jsonFetchTimeout = 30 * time.Second
	jsonUserAgent    = "Mozilla/5.0 (compatible; driftwatch/1.0; +https://github.com/ppiankov/driftwatch)"
	jsonMaxRetries   = 3
)

// JSONSource fetches a feed endpoint that returns a JSON array of objects,
// each carrying the well-known id field. Requests are paced with a rate
// limiter so tight sampling intervals cannot hammer the endpoint.
type JSONSource struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewJSON creates a JSON API source for the given endpoint URL.
func NewJSON(rawURL string) (*JSONSource, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("json: invalid feed URL %q", rawURL)
	}
	return &JSONSource{
		url:     u.String(),
		client:  &http.Client{Timeout: jsonFetchTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

func (js *JSONSource) Name() string {
	return jsonSourceName
}

// jsonSleepFunc is the function used for retry backoff delays.
// It defaults to time.Sleep but can be overridden in tests.
var jsonSleepFunc = time.Sleep

func (js *JSONSource) Fetch(ctx context.Context) ([]monitor.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, jsonFetchTimeout)
	defer cancel()

	if err := js.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("json: wait for rate limit: %w", err)
	}

	var lastErr error
	for attempt := range jsonMaxRetries {
		items, err := js.fetchOnce(ctx)
		if err == nil {
			return items, nil
		}
		if !isRetryableError(err) {
			return nil, err
		}
		lastErr = err
		if attempt < jsonMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s
			jsonSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

func (js *JSONSource) fetchOnce(ctx context.Context) ([]monitor.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, js.url, nil)
	if err != nil {
		return nil, fmt.Errorf("json: build request: %w", err)
	}
	req.Header.Set("User-Agent", jsonUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := js.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("json: fetch %s: %w", js.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("json: fetch %s: HTTP %d", js.url, resp.StatusCode)
	}

	var raw []any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("json: decode %s: %w", js.url, err)
	}

	return itemsFromArray(raw)
}

// itemsFromArray converts decoded JSON objects into items. Elements that are
// not objects or carry no string id are skipped, matching the Item contract.
func itemsFromArray(raw []any) ([]monitor.Item, error) {
	var items []monitor.Item
	for _, elem := range raw {
		doc, err := document.FromAny(elem)
		if err != nil {
			return nil, fmt.Errorf("json: decode item: %w", err)
		}
		if !doc.IsMapping() {
			continue
		}
		item, ok := monitor.NewItem(doc)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return dedupe(items), nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	s := err.Error()
	// Timeout errors
	if strings.Contains(s, "timeout") || strings.Contains(s, "Timeout") {
		return true
	}
	// Connection errors
	if strings.Contains(s, "connection refused") || strings.Contains(s, "no such host") {
		return true
	}
	// HTTP 5xx errors (server-side, worth retrying)
	if strings.Contains(s, "500") ||
		strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "504") {
		return true
	}
	return false
}
