// Package search supplies ranked blog post results for a keyword. The feed
// source parses a search-result RSS/Atom feed; rank is feed order.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Result is one ranked search result for a keyword.
type Result struct {
	Rank        int        `json:"rank"`
	URL         string     `json:"url"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Source provides the top-ranked results for a keyword.
type Source interface {
	TopResults(ctx context.Context, keyword string, n int) ([]Result, error)
}

// FeedSource reads ranked results from a search feed. The template must
// contain one %s slot for the URL-escaped keyword.
type FeedSource struct {
	template string
	parser   *gofeed.Parser
}

// NewFeedSource creates a feed-backed search source.
func NewFeedSource(template string) *FeedSource {
	return &FeedSource{template: template, parser: gofeed.NewParser()}
}

// TopResults fetches and parses the search feed for a keyword and returns up
// to n ranked results.
func (s *FeedSource) TopResults(ctx context.Context, keyword string, n int) ([]Result, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("empty keyword")
	}

	feedURL := fmt.Sprintf(s.template, url.QueryEscape(keyword))
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing search feed: %w", err)
	}

	var results []Result
	for _, item := range feed.Items {
		if len(results) >= n {
			break
		}

		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if link == "" {
			continue
		}

		results = append(results, Result{
			Rank:        len(results) + 1,
			URL:         link,
			SourceID:    sourceID(item, link),
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: item.PublishedParsed,
		})
	}

	return results, nil
}

// sourceID identifies the publisher: the feed item's author when present,
// otherwise the host of the result URL.
func sourceID(item *gofeed.Item, link string) string {
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
		return strings.ToLower(u.Hostname())
	}
	return ""
}
