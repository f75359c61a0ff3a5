// Package guide turns aggregated patterns into structured writing guides.
// Guides are computed on demand and never persisted.
package guide

import (
	"math"

	"github.com/blogforge/toppost/internal/database"
	"github.com/blogforge/toppost/internal/extract"
)

// Status tells whether a guide is backed by data or static defaults.
type Status string

const (
	StatusInsufficientData Status = "insufficient_data"
	StatusDataDriven       Status = "data_driven"
)

// minSamples is the sample count below which a category falls back to the
// default rule set with zero confidence.
const minSamples = 10

// confidenceSaturation is the sample count at which confidence reaches 1.0.
const confidenceSaturation = 100

// TitleRules recommends title length and keyword placement.
type TitleRules struct {
	OptimalLength   int    `json:"optimal_length"`
	MinLength       int    `json:"min_length"`
	MaxLength       int    `json:"max_length"`
	IncludeKeyword  bool   `json:"include_keyword"`
	KeywordPosition string `json:"keyword_position"`
}

// ContentRules recommends body length and keyword usage.
type ContentRules struct {
	OptimalLength     int     `json:"optimal_length"`
	MinLength         int     `json:"min_length"`
	MaxLength         int     `json:"max_length"`
	KeywordCountMin   int     `json:"keyword_count_min"`
	KeywordCountMax   int     `json:"keyword_count_max"`
	KeywordDensityMin float64 `json:"keyword_density_min"`
	KeywordDensityMax float64 `json:"keyword_density_max"`
}

// MediaRules recommends image and video usage.
type MediaRules struct {
	ImageOptimal int  `json:"image_optimal"`
	ImageMin     int  `json:"image_min"`
	ImageMax     int  `json:"image_max"`
	UseVideo     bool `json:"use_video"`
}

// StructureRules recommends section heading counts.
type StructureRules struct {
	HeadingMin int `json:"heading_min"`
	HeadingMax int `json:"heading_max"`
}

// ExtraRules covers map embeds and outbound links.
type ExtraRules struct {
	IncludeMap          bool `json:"include_map"`
	IncludeExternalLink bool `json:"include_external_link"`
}

// Rules is the full recommendation set of a guide.
type Rules struct {
	Title     TitleRules     `json:"title"`
	Content   ContentRules   `json:"content"`
	Media     MediaRules     `json:"media"`
	Structure StructureRules `json:"structure"`
	Extras    ExtraRules     `json:"extras"`
}

// Guide is a derived writing guide for one category.
type Guide struct {
	Status      Status  `json:"status"`
	Confidence  float64 `json:"confidence"`
	SampleCount int     `json:"sample_count"`
	Category    string  `json:"category"`
	Rules       Rules   `json:"rules"`
}

// DefaultRules is the static fallback used when a category has too few
// samples for data-driven recommendations.
func DefaultRules() Rules {
	return Rules{
		Title: TitleRules{
			OptimalLength:   28,
			MinLength:       20,
			MaxLength:       35,
			IncludeKeyword:  true,
			KeywordPosition: string(extract.PositionFront),
		},
		Content: ContentRules{
			OptimalLength:     2000,
			MinLength:         1500,
			MaxLength:         2500,
			KeywordCountMin:   3,
			KeywordCountMax:   7,
			KeywordDensityMin: 1.0,
			KeywordDensityMax: 2.0,
		},
		Media: MediaRules{
			ImageOptimal: 7,
			ImageMin:     5,
			ImageMax:     10,
			UseVideo:     false,
		},
		Structure: StructureRules{HeadingMin: 3, HeadingMax: 5},
		Extras:    ExtraRules{},
	}
}

// Generator produces guides from stored patterns.
type Generator struct {
	db *database.DB
}

// NewGenerator creates a guide generator.
func NewGenerator(db *database.DB) *Generator {
	return &Generator{db: db}
}

// Generate builds the writing guide for a category. It never fails: a missing
// pattern or one below the sample floor yields the default rule set with
// confidence 0.
func (g *Generator) Generate(category string) *Guide {
	pattern, err := g.db.GetPattern(category)
	if err != nil || pattern == nil || pattern.SampleCount < minSamples {
		sampleCount := 0
		if pattern != nil {
			sampleCount = pattern.SampleCount
		}
		return &Guide{
			Status:      StatusInsufficientData,
			Confidence:  0,
			SampleCount: sampleCount,
			Category:    category,
			Rules:       DefaultRules(),
		}
	}
	return FromPattern(pattern)
}

// Confidence maps a sample count to [0,1]: zero below the sample floor,
// linear up to saturation at 100 samples.
func Confidence(sampleCount int) float64 {
	if sampleCount < minSamples {
		return 0
	}
	return math.Min(1.0, float64(sampleCount)/confidenceSaturation)
}

// FromPattern derives a data-driven guide from an aggregated pattern. Each
// numeric band is the observed mean scaled by fixed factors with a per-field
// floor or ceiling clamp that keeps extreme aggregates from producing
// degenerate guides.
func FromPattern(p *database.AggregatedPattern) *Guide {
	titleAvg := p.AvgTitleLength
	headingAvg := p.AvgHeadingCount
	densityAvg := p.AvgKeywordDensity
	keywordAvg := p.AvgKeywordCount

	rules := Rules{
		Title: TitleRules{
			OptimalLength:   round(titleAvg),
			MinLength:       maxInt(15, round(titleAvg*0.7)),
			MaxLength:       minInt(60, round(titleAvg*1.3)),
			IncludeKeyword:  p.TitleKeywordRate >= 0.5,
			KeywordPosition: bestPosition(p.FrontRate, p.MiddleRate, p.EndRate),
		},
		Content: ContentRules{
			OptimalLength:     round(p.AvgContentLength),
			MinLength:         p.OptimalContentMin,
			MaxLength:         p.OptimalContentMax,
			KeywordCountMin:   maxInt(3, round(keywordAvg*0.6)),
			KeywordCountMax:   round(keywordAvg * 1.4),
			KeywordDensityMin: math.Max(0.3, round2(densityAvg*0.5)),
			KeywordDensityMax: math.Min(3.0, round2(densityAvg*1.5)),
		},
		Media: MediaRules{
			ImageOptimal: round(p.AvgImageCount),
			ImageMin:     p.OptimalImageMin,
			ImageMax:     p.OptimalImageMax,
			UseVideo:     p.VideoRate > 0.3,
		},
		Structure: StructureRules{
			HeadingMin: maxInt(2, round(headingAvg*0.6)),
			HeadingMax: round(headingAvg * 1.5),
		},
		Extras: ExtraRules{
			IncludeMap:          p.MapRate > 0.5,
			IncludeExternalLink: p.ExternalLinkRate > 0.5,
		},
	}

	return &Guide{
		Status:      StatusDataDriven,
		Confidence:  Confidence(p.SampleCount),
		SampleCount: p.SampleCount,
		Category:    p.Category,
		Rules:       rules,
	}
}

// bestPosition picks the keyword position with the highest observed fraction.
// Ties resolve in front, middle, end priority order.
func bestPosition(front, middle, end float64) string {
	best := string(extract.PositionFront)
	bestRate := front
	if middle > bestRate {
		best = string(extract.PositionMiddle)
		bestRate = middle
	}
	if end > bestRate {
		best = string(extract.PositionEnd)
	}
	return best
}

func round(v float64) int {
	return int(math.Round(v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
