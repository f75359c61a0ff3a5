// Package aggregate recomputes per-category pattern statistics from stored
// analysis records. Recomputation is a full scan-and-replace of the single
// pattern row per category, serialized per category so concurrent ingestions
// cannot race on the same row.
package aggregate

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/blogforge/toppost/internal/database"
)

// MinContentLength is the aggregation floor: records at or below this content
// length are failed or partial fetches and would skew the statistics.
const MinContentLength = 100

// percentileFloor is the minimum sample size for nearest-rank percentiles;
// smaller samples fall back to a fixed band around the mean.
const percentileFloor = 4

// Aggregator recomputes AggregatedPattern rows.
type Aggregator struct {
	db    *database.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Aggregator backed by the given store.
func New(db *database.DB) *Aggregator {
	return &Aggregator{db: db, locks: make(map[string]*sync.Mutex)}
}

// Recompute rebuilds the pattern row for a category from all qualifying
// records and replaces the stored row. It returns nil (and writes nothing)
// when the category has no qualifying records. Calls for the same category
// are serialized.
func (a *Aggregator) Recompute(category string) (*database.AggregatedPattern, error) {
	lock := a.categoryLock(category)
	lock.Lock()
	defer lock.Unlock()

	raw, err := a.db.AggregateStatsFor(category, MinContentLength)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", category, err)
	}
	if raw.SampleCount == 0 {
		log.Printf("no qualifying records for category %s, skipping pattern update", category)
		return nil, nil
	}

	lengths, err := a.db.ContentLengthValues(category, MinContentLength)
	if err != nil {
		return nil, fmt.Errorf("reading content lengths for %s: %w", category, err)
	}
	images, err := a.db.ImageCountValues(category, MinContentLength)
	if err != nil {
		return nil, fmt.Errorf("reading image counts for %s: %w", category, err)
	}

	contentMin, contentMax := OptimalRange(lengths)
	imageMin, imageMax := OptimalRange(images)

	pattern := &database.AggregatedPattern{
		Category:          category,
		SampleCount:       raw.SampleCount,
		AvgTitleLength:    raw.AvgTitleLength,
		AvgContentLength:  raw.AvgContentLength,
		AvgImageCount:     raw.AvgImageCount,
		AvgVideoCount:     raw.AvgVideoCount,
		AvgHeadingCount:   raw.AvgHeadingCount,
		AvgKeywordCount:   raw.AvgKeywordCount,
		AvgKeywordDensity: raw.AvgKeywordDensity,
		MinContentLength:  raw.MinContentLength,
		MaxContentLength:  raw.MaxContentLength,
		MinImageCount:     raw.MinImageCount,
		MaxImageCount:     raw.MaxImageCount,
		TitleKeywordRate:  raw.TitleKeywordRate,
		MapRate:           raw.MapRate,
		ExternalLinkRate:  raw.ExternalLinkRate,
		VideoRate:         raw.VideoRate,
		FrontRate:         raw.FrontRate,
		MiddleRate:        raw.MiddleRate,
		EndRate:           raw.EndRate,
		OptimalContentMin: contentMin,
		OptimalContentMax: contentMax,
		OptimalImageMin:   imageMin,
		OptimalImageMax:   imageMax,
	}

	if err := a.db.UpsertPattern(pattern); err != nil {
		return nil, fmt.Errorf("storing pattern for %s: %w", category, err)
	}

	log.Printf("recomputed pattern for %s: %d samples, content %d-%d, images %d-%d",
		category, pattern.SampleCount, contentMin, contentMax, imageMin, imageMax)
	return pattern, nil
}

// OptimalRange derives a recommended [low, high] band from observed values.
// Fewer than four values yields a fixed ±30% band around the mean; otherwise
// the band is the nearest-rank 25th-75th percentile: sorted[n/4] and
// sorted[3n/4] with integer division and no interpolation. The index formulas
// are part of the contract.
func OptimalRange(values []int) (int, int) {
	if len(values) == 0 {
		return 0, 0
	}

	if len(values) < percentileFloor {
		sum := 0
		for _, v := range values {
			sum += v
		}
		mean := float64(sum) / float64(len(values))
		return int(math.Round(mean * 0.7)), int(math.Round(mean * 1.3))
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	return sorted[n/4], sorted[(3*n)/4]
}

func (a *Aggregator) categoryLock(category string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[category]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[category] = lock
	}
	return lock
}
