package source

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
)

const (
	rssSourceName   = "rss"
	rssFetchTimeout = 30 * time.Second
	rssMaxRetries   = 3
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s{2,}`)
)

// RSSSource samples RSS/Atom feeds. Every fetch re-reads all configured
// feeds and maps their entries to items keyed by GUID (falling back to the
// entry link).
type RSSSource struct {
	feeds []string
}

// NewRSS creates an RSS/Atom source. At least one feed URL is required.
func NewRSS(feeds []string) (*RSSSource, error) {
	if len(feeds) == 0 {
		return nil, errors.New("rss: at least one feed URL is required")
	}
	return &RSSSource{feeds: feeds}, nil
}

func (rs *RSSSource) Name() string {
	return rssSourceName
}

// rssSleepFunc is the function used for retry backoff delays.
// It defaults to time.Sleep but can be overridden in tests.
var rssSleepFunc = time.Sleep

// Fetch reads all feeds sequentially. Any feed failure fails the whole
// fetch: a snapshot must capture the complete collection or nothing, or
// the diff against its neighbor would report phantom removals.
func (rs *RSSSource) Fetch(ctx context.Context) ([]monitor.Item, error) {
	var items []monitor.Item
	for _, feedURL := range rs.feeds {
		feedItems, err := fetchFeedWithRetry(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("rss: %s: %w", feedURL, err)
		}
		items = append(items, feedItems...)
	}
	return dedupe(items), nil
}

func fetchFeedWithRetry(ctx context.Context, feedURL string) ([]monitor.Item, error) {
	var lastErr error
	for attempt := range rssMaxRetries {
		items, err := fetchFeed(ctx, feedURL)
		if err == nil {
			return items, nil
		}
		if !isRetryableError(err) {
			return nil, err
		}
		lastErr = err
		if attempt < rssMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s
			rssSleepFunc(backoff)
		}
	}
	return nil, lastErr
}

// rssTransport injects a User-Agent header into every request.
type rssTransport struct {
	base http.RoundTripper
}

func (t *rssTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", jsonUserAgent)
	return t.base.RoundTrip(req)
}

func fetchFeed(ctx context.Context, feedURL string) ([]monitor.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, rssFetchTimeout)
	defer cancel()

	fp := gofeed.NewParser()
	fp.Client = &http.Client{
		Timeout:   rssFetchTimeout,
		Transport: &rssTransport{base: http.DefaultTransport},
	}
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	return itemsFromFeed(feed, feedURL), nil
}

func itemsFromFeed(feed *gofeed.Feed, feedURL string) []monitor.Item {
	label := feedLabel(feed, feedURL)

	var items []monitor.Item
	for _, entry := range feed.Items {
		id := entry.GUID
		if id == "" {
			id = entry.Link
		}
		if id == "" {
			continue
		}

		fields := map[string]document.Value{
			"id":    document.String(id),
			"feed":  document.String(label),
			"title": document.String(stripHTML(entry.Title)),
		}
		if entry.Link != "" {
			fields["link"] = document.String(entry.Link)
		}
		if summary := stripHTML(entry.Description); summary != "" {
			fields["summary"] = document.String(summary)
		}
		if ts := entryPublishedTime(entry); !ts.IsZero() {
			fields["published"] = document.String(ts.UTC().Format(time.RFC3339))
		}
		if len(entry.Categories) > 0 {
			cats := make([]document.Value, len(entry.Categories))
			for i, c := range entry.Categories {
				cats[i] = document.String(c)
			}
			fields["categories"] = document.Sequence(cats...)
		}

		item, ok := monitor.NewItem(document.Mapping(fields))
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func entryPublishedTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}

// feedLabel names a feed for the item document: the feed title when set,
// else the host of the feed URL.
func feedLabel(feed *gofeed.Feed, feedURL string) string {
	if feed.Title != "" {
		return feed.Title
	}
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
