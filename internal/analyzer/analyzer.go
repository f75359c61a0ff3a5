// Package analyzer orchestrates ingestion: fetch the top-ranked posts for a
// keyword, extract features, store records, and re-aggregate the affected
// categories. It runs decoupled from the search request that triggers it.
package analyzer

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/blogforge/toppost/internal/aggregate"
	"github.com/blogforge/toppost/internal/category"
	"github.com/blogforge/toppost/internal/database"
	"github.com/blogforge/toppost/internal/extract"
	"github.com/blogforge/toppost/internal/fetch"
	"github.com/blogforge/toppost/internal/search"
)

// TopResultCount is how many ranked results a keyword-search event analyzes.
const TopResultCount = 3

// maxConcurrency caps in-flight fetches. Together with the fetcher's
// inter-request delay this keeps the load on the target site low.
const maxConcurrency = 3

// URLSummary reports the outcome of analyzing one ranked result.
type URLSummary struct {
	Rank           int     `json:"rank"`
	URL            string  `json:"url"`
	Category       string  `json:"category"`
	DataQuality    string  `json:"data_quality,omitempty"`
	TitleLength    int     `json:"title_length"`
	ContentLength  int     `json:"content_length"`
	ImageCount     int     `json:"image_count"`
	KeywordCount   int     `json:"keyword_count"`
	KeywordDensity float64 `json:"keyword_density"`
	Error          string  `json:"error,omitempty"`
}

// Result holds the outcome of one ingestion batch.
type Result struct {
	Keyword   string       `json:"keyword"`
	Category  string       `json:"category"`
	Analyzed  int          `json:"analyzed"`
	Failed    int          `json:"failed"`
	Summaries []URLSummary `json:"results"`
}

// Analyzer runs ingestion batches.
type Analyzer struct {
	db          *database.DB
	fetcher     fetch.Fetcher
	aggregator  *aggregate.Aggregator
	concurrency int64
}

// New creates an analyzer. Concurrency is clamped to 1..3.
func New(db *database.DB, fetcher fetch.Fetcher, aggregator *aggregate.Aggregator, concurrency int) *Analyzer {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > maxConcurrency {
		concurrency = maxConcurrency
	}
	return &Analyzer{
		db:          db,
		fetcher:     fetcher,
		aggregator:  aggregator,
		concurrency: int64(concurrency),
	}
}

// OnKeywordSearch handles a keyword search event in the background: the
// caller returns to its user immediately while the top results are analyzed.
func (a *Analyzer) OnKeywordSearch(keyword string, results []search.Result) {
	if len(results) > TopResultCount {
		results = results[:TopResultCount]
	}
	go func() {
		res := a.Analyze(context.Background(), keyword, results)
		log.Printf("background analysis for %q done: %d analyzed, %d failed",
			keyword, res.Analyzed, res.Failed)
	}()
}

// Analyze ingests the given ranked results for a keyword. Results are fetched
// concurrently under the semaphore cap; one failing URL never aborts the
// rest of the batch. Afterwards the keyword's category and the general
// baseline are re-aggregated.
func (a *Analyzer) Analyze(ctx context.Context, keyword string, results []search.Result) *Result {
	cat := category.Classify(keyword)
	res := &Result{Keyword: keyword, Category: cat}

	sem := semaphore.NewWeighted(a.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, r := range results {
		wg.Add(1)
		go func(r search.Result) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			summary := a.analyzeOne(ctx, keyword, cat, r)

			mu.Lock()
			res.Summaries = append(res.Summaries, summary)
			if summary.Error != "" {
				res.Failed++
			} else {
				res.Analyzed++
			}
			mu.Unlock()
		}(r)
	}
	wg.Wait()

	sort.Slice(res.Summaries, func(i, j int) bool {
		return res.Summaries[i].Rank < res.Summaries[j].Rank
	})

	if res.Analyzed > 0 {
		if _, err := a.aggregator.Recompute(cat); err != nil {
			log.Printf("recomputing pattern for %s: %v", cat, err)
		}
		if cat != database.GeneralCategory {
			if _, err := a.aggregator.Recompute(database.GeneralCategory); err != nil {
				log.Printf("recomputing general pattern: %v", err)
			}
		}
	}

	return res
}

// analyzeOne fetches, extracts and stores a single ranked result. A network
// or HTTP failure skips the URL entirely; a page that fetched but yielded no
// usable content is stored as a zeroed low-quality record.
func (a *Analyzer) analyzeOne(ctx context.Context, keyword, cat string, r search.Result) URLSummary {
	summary := URLSummary{Rank: r.Rank, URL: r.URL, Category: cat}

	page, err := a.fetcher.Fetch(ctx, r.URL)
	if err != nil {
		log.Printf("fetch failed for %s: %v", r.URL, err)
		summary.Error = err.Error()
		return summary
	}

	if page.PublishedAt == nil && r.PublishedAt != nil {
		page.PublishedAt = r.PublishedAt
	}

	features := extract.Extract(page, keyword)
	quality := gradeQuality(features)

	rec := &database.AnalysisRecord{
		Keyword:              keyword,
		Rank:                 r.Rank,
		SourceID:             r.SourceID,
		URL:                  r.URL,
		TitleLength:          features.TitleLength,
		TitleHasKeyword:      features.TitleHasKeyword,
		TitleKeywordPosition: string(features.TitleKeywordPosition),
		ContentLength:        features.ContentLength,
		ImageCount:           features.ImageCount,
		VideoCount:           features.VideoCount,
		HeadingCount:         features.HeadingCount,
		KeywordCount:         features.KeywordCount,
		KeywordDensity:       features.KeywordDensity,
		HasMap:               features.HasMap,
		HasExternalLink:      features.HasExternalLink,
		LikeCount:            features.LikeCount,
		CommentCount:         features.CommentCount,
		PostAgeDays:          features.PostAgeDays,
		Category:             cat,
		DataQuality:          quality,
	}

	if err := a.db.UpsertRecord(rec); err != nil {
		log.Printf("storing record for %s: %v", r.URL, err)
		summary.Error = err.Error()
		return summary
	}

	summary.DataQuality = quality
	summary.TitleLength = features.TitleLength
	summary.ContentLength = features.ContentLength
	summary.ImageCount = features.ImageCount
	summary.KeywordCount = features.KeywordCount
	summary.KeywordDensity = features.KeywordDensity
	return summary
}

// gradeQuality labels how completely a record's fetch and extraction
// succeeded.
func gradeQuality(f extract.Features) string {
	switch {
	case !f.Fetched:
		return "low"
	case f.ContentLength >= 1000 && f.ImageCount >= 3:
		return "high"
	case f.ContentLength >= 500:
		return "medium"
	default:
		return "low"
	}
}
