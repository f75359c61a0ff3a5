package fetch

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/charset"

	"github.com/blogforge/toppost/internal/extract"
)

// structuralSelectors map each structural element kind to the markers that
// identify it. Naver SmartEditor classes come first, generic fallbacks after.
// goquery returns each matched node once, so elements matching several
// selectors in one list are not double counted.
var structuralSelectors = map[string]string{
	"image":   "img, .se-image-resource",
	"video":   "video, .se-video, iframe[src*='youtube'], iframe[src*='youtu.be'], iframe[src*='vimeo'], iframe[src*='tv.naver']",
	"heading": "h1, h2, h3, h4, .se-section-sectionTitle",
	"map":     ".se-map, .se-module-map, .se-placesMap, iframe[src*='map']",
}

var stripPolicy = bluemonday.StrictPolicy()

var digitsRe = regexp.MustCompile(`\d[\d,]*`)

// ParsePage turns a raw HTTP body into PageData. The body is charset-decoded
// first since Korean blog platforms still serve EUC-KR.
func ParsePage(pageURL string, body []byte, contentType string) (*extract.PageData, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, err
		}
		decoded = body
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return nil, err
	}

	parsedURL, _ := url.Parse(pageURL)
	host := ""
	if parsedURL != nil {
		host = strings.ToLower(parsedURL.Hostname())
	}

	doc.Find("script, noscript, style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	page := &extract.PageData{
		URL:          pageURL,
		Host:         host,
		Title:        pageTitle(doc),
		TextContent:  pageText(decoded, parsedURL, doc),
		ImageCount:   CountStructuralElements(doc, "image"),
		VideoCount:   CountStructuralElements(doc, "video"),
		HeadingCount: CountStructuralElements(doc, "heading"),
		HasMap:       CountStructuralElements(doc, "map") > 0,
		LinkHosts:    linkHosts(doc),
		LikeCount:    engagementCount(doc, ".u_likeit_list_count, ._count, .like_no"),
		CommentCount: engagementCount(doc, ".commentCount, ._commentCount, .btn_comment em"),
		PublishedAt:  publishedAt(doc),
	}
	page.Fetched = page.Title != "" || page.TextContent != ""

	return page, nil
}

// CountStructuralElements counts DOM elements matching any marker of the
// given kind, each element at most once. Unknown kinds count zero.
func CountStructuralElements(doc *goquery.Document, kind string) int {
	selector, ok := structuralSelectors[kind]
	if !ok {
		return 0
	}
	return doc.Find(selector).Length()
}

func pageTitle(doc *goquery.Document) string {
	if og := doc.Find(`meta[property="og:title"]`).AttrOr("content", ""); og != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// pageText extracts readable body text. Readability first; when it finds
// nothing (SmartEditor markup confuses it at times) the sanitized full text
// of the document is used instead.
func pageText(decoded []byte, pageURL *url.URL, doc *goquery.Document) string {
	article, err := readability.FromReader(bytes.NewReader(decoded), pageURL)
	if err == nil {
		text := collapseWhitespace(article.TextContent)
		if utf8.RuneCountInString(text) > 100 {
			return text
		}
	}

	html, err := doc.Html()
	if err != nil {
		return ""
	}
	return collapseWhitespace(stripPolicy.Sanitize(html))
}

func linkHosts(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var hosts []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Hostname() == "" {
			return
		}
		host := strings.ToLower(u.Hostname())
		if _, ok := seen[host]; ok {
			return
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	})
	return hosts
}

// engagementCount reads the first number found in elements matching the
// marker list. Missing markers mean zero, never an error.
func engagementCount(doc *goquery.Document, selector string) int {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return 0
	}
	match := digitsRe.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func publishedAt(doc *goquery.Document) *time.Time {
	raw := doc.Find(`meta[property="article:published_time"]`).AttrOr("content", "")
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
