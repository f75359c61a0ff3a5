// Package extract computes the structural feature vector of a fetched blog
// post. It is pure: all network and DOM concerns live in the page fetcher,
// which hands over a PageData with pre-counted structural elements.
package extract

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Position describes where the keyword appears in a post title.
type Position string

const (
	PositionFront  Position = "front"
	PositionMiddle Position = "middle"
	PositionEnd    Position = "end"
	PositionNone   Position = "none"
)

// PageData is the capability boundary between the page fetcher and the
// extractor. Structural counts are supplied by the fetcher's parser so tests
// can feed synthetic counts without markup fixtures.
type PageData struct {
	URL          string
	Host         string
	Title        string
	TextContent  string // body text with markup stripped
	ImageCount   int
	VideoCount   int
	HeadingCount int
	HasMap       bool
	LinkHosts    []string // hosts of all anchor targets
	LikeCount    int
	CommentCount int
	PublishedAt  *time.Time
	Fetched      bool
}

// Features is the extracted feature vector. Rank, category and data quality
// are assigned by the caller.
type Features struct {
	TitleLength          int
	TitleHasKeyword      bool
	TitleKeywordPosition Position
	ContentLength        int
	ImageCount           int
	VideoCount           int
	HeadingCount         int
	KeywordCount         int
	KeywordDensity       float64
	HasMap               bool
	HasExternalLink      bool
	LikeCount            int
	CommentCount         int
	PostAgeDays          *int
	Fetched              bool
}

// Extract computes the feature vector for a page and keyword. An unusable
// page (failed fetch or no text at all) yields zeroed features with
// Fetched=false so the caller can label the record low quality.
func Extract(page *PageData, keyword string) Features {
	if page == nil || !page.Fetched || (page.Title == "" && page.TextContent == "") {
		return Features{TitleKeywordPosition: PositionNone}
	}

	position := KeywordPosition(page.Title, keyword)
	keywordCount, density := KeywordDensity(page.TextContent, keyword)

	f := Features{
		TitleLength:          utf8.RuneCountInString(strings.TrimSpace(page.Title)),
		TitleHasKeyword:      position != PositionNone,
		TitleKeywordPosition: position,
		ContentLength:        utf8.RuneCountInString(page.TextContent),
		ImageCount:           page.ImageCount,
		VideoCount:           page.VideoCount,
		HeadingCount:         page.HeadingCount,
		KeywordCount:         keywordCount,
		KeywordDensity:       density,
		HasMap:               page.HasMap,
		HasExternalLink:      hasExternalLink(page.Host, page.LinkHosts),
		LikeCount:            page.LikeCount,
		CommentCount:         page.CommentCount,
		Fetched:              true,
	}

	if page.PublishedAt != nil {
		days := int(time.Since(*page.PublishedAt).Hours() / 24)
		if days >= 0 {
			f.PostAgeDays = &days
		}
	}

	return f
}

// KeywordPosition locates the keyword within the title. Both strings are
// normalized (lowercased, all whitespace removed) before matching. The
// position buckets split the title at rune ratios 0.33 and 0.66, boundary
// values belonging to the lower bucket.
func KeywordPosition(title, keyword string) Position {
	normTitle := normalize(title)
	normKeyword := normalize(keyword)
	if normTitle == "" || normKeyword == "" {
		return PositionNone
	}

	idx := strings.Index(normTitle, normKeyword)
	if idx < 0 {
		return PositionNone
	}

	ratio := float64(utf8.RuneCountInString(normTitle[:idx])) /
		float64(utf8.RuneCountInString(normTitle))
	switch {
	case ratio <= 0.33:
		return PositionFront
	case ratio <= 0.66:
		return PositionMiddle
	default:
		return PositionEnd
	}
}

// KeywordDensity returns the number of keyword occurrences in the content and
// the density as occurrences per 1000 normalized characters, rounded to two
// decimals. Empty normalized content yields (0, 0.0).
func KeywordDensity(content, keyword string) (int, float64) {
	normContent := normalize(content)
	normKeyword := normalize(keyword)

	length := utf8.RuneCountInString(normContent)
	if length == 0 || normKeyword == "" {
		return 0, 0.0
	}

	count := strings.Count(normContent, normKeyword)
	if length < 1 {
		length = 1
	}
	density := math.Round(float64(count)*1000/float64(length)*100) / 100
	return count, density
}

// normalize lowercases and removes all whitespace. Korean keywords are often
// written with and without spaces, so whitespace must not affect matching.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// hasExternalLink reports whether any link target leaves the post's own
// platform domain. Subdomain variants of the same host count as internal.
func hasExternalLink(pageHost string, linkHosts []string) bool {
	pageHost = strings.ToLower(pageHost)
	for _, h := range linkHosts {
		h = strings.ToLower(h)
		if h == "" || h == pageHost {
			continue
		}
		if strings.HasSuffix(h, "."+pageHost) || strings.HasSuffix(pageHost, "."+h) {
			continue
		}
		return true
	}
	return false
}
