package guide

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/blogforge/toppost/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePattern() *database.AggregatedPattern {
	return &database.AggregatedPattern{
		Category:          "hospital",
		SampleCount:       50,
		AvgTitleLength:    30,
		AvgContentLength:  2000,
		AvgImageCount:     7,
		AvgVideoCount:     0.2,
		AvgHeadingCount:   4,
		AvgKeywordCount:   5,
		AvgKeywordDensity: 2.0,
		TitleKeywordRate:  0.8,
		MapRate:           0.7,
		ExternalLinkRate:  0.2,
		VideoRate:         0.2,
		FrontRate:         0.6,
		MiddleRate:        0.3,
		EndRate:           0.1,
		OptimalContentMin: 1600,
		OptimalContentMax: 2400,
		OptimalImageMin:   5,
		OptimalImageMax:   10,
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		samples int
		want    float64
	}{
		{0, 0},
		{9, 0},
		{10, 0.1},
		{50, 0.5},
		{100, 1.0},
		{250, 1.0},
	}
	for _, tt := range tests {
		if got := Confidence(tt.samples); got != tt.want {
			t.Errorf("Confidence(%d) = %f, want %f", tt.samples, got, tt.want)
		}
	}
}

func TestGenerateNoPattern(t *testing.T) {
	db := openTestDB(t)

	g := NewGenerator(db).Generate("travel")
	if g.Status != StatusInsufficientData {
		t.Errorf("expected insufficient_data, got %q", g.Status)
	}
	if g.Confidence != 0 {
		t.Errorf("expected confidence 0, got %f", g.Confidence)
	}
	if g.Category != "travel" {
		t.Errorf("expected category travel, got %q", g.Category)
	}
	if g.Rules != DefaultRules() {
		t.Error("expected default rules on missing pattern")
	}
}

func TestGenerateBelowSampleFloor(t *testing.T) {
	db := openTestDB(t)

	p := samplePattern()
	p.SampleCount = 9
	if err := db.UpsertPattern(p); err != nil {
		t.Fatalf("UpsertPattern: %v", err)
	}

	g := NewGenerator(db).Generate("hospital")
	if g.Status != StatusInsufficientData {
		t.Errorf("expected fallback below 10 samples, got %q", g.Status)
	}
	if g.SampleCount != 9 {
		t.Errorf("expected reported sample count 9, got %d", g.SampleCount)
	}
	if g.Rules != DefaultRules() {
		t.Error("expected default rules below the sample floor")
	}
}

func TestGenerateDataDriven(t *testing.T) {
	db := openTestDB(t)
	if err := db.UpsertPattern(samplePattern()); err != nil {
		t.Fatalf("UpsertPattern: %v", err)
	}

	g := NewGenerator(db).Generate("hospital")
	if g.Status != StatusDataDriven {
		t.Fatalf("expected data_driven, got %q", g.Status)
	}
	if g.Confidence != 0.5 {
		t.Errorf("expected confidence 0.5 at 50 samples, got %f", g.Confidence)
	}

	r := g.Rules
	if r.Title.OptimalLength != 30 || r.Title.MinLength != 21 || r.Title.MaxLength != 39 {
		t.Errorf("title band: got %d/%d/%d", r.Title.MinLength, r.Title.OptimalLength, r.Title.MaxLength)
	}
	if !r.Title.IncludeKeyword {
		t.Error("keyword rate 0.8 should recommend including the keyword")
	}
	if r.Title.KeywordPosition != "front" {
		t.Errorf("expected front position, got %q", r.Title.KeywordPosition)
	}
	if r.Content.MinLength != 1600 || r.Content.MaxLength != 2400 {
		t.Errorf("content band should come from the optimal range, got %d-%d",
			r.Content.MinLength, r.Content.MaxLength)
	}
	if r.Content.KeywordCountMin != 3 || r.Content.KeywordCountMax != 7 {
		t.Errorf("keyword count band: got %d-%d", r.Content.KeywordCountMin, r.Content.KeywordCountMax)
	}
	if r.Content.KeywordDensityMin != 1.0 || r.Content.KeywordDensityMax != 3.0 {
		t.Errorf("density band: got %.2f-%.2f", r.Content.KeywordDensityMin, r.Content.KeywordDensityMax)
	}
	if r.Media.ImageMin != 5 || r.Media.ImageMax != 10 || r.Media.ImageOptimal != 7 {
		t.Errorf("image band: got %d/%d/%d", r.Media.ImageMin, r.Media.ImageOptimal, r.Media.ImageMax)
	}
	if r.Media.UseVideo {
		t.Error("video rate 0.2 should not recommend video")
	}
	if r.Structure.HeadingMin != 2 || r.Structure.HeadingMax != 6 {
		t.Errorf("heading band: got %d-%d", r.Structure.HeadingMin, r.Structure.HeadingMax)
	}
	if !r.Extras.IncludeMap {
		t.Error("map rate 0.7 should recommend a map")
	}
	if r.Extras.IncludeExternalLink {
		t.Error("link rate 0.2 should not recommend external links")
	}
}

func TestFromPatternClamps(t *testing.T) {
	p := samplePattern()
	p.AvgTitleLength = 80
	p.AvgKeywordDensity = 4.0
	p.AvgKeywordCount = 1
	p.AvgHeadingCount = 1

	r := FromPattern(p).Rules
	if r.Title.MaxLength != 60 {
		t.Errorf("title max must clamp to 60, got %d", r.Title.MaxLength)
	}
	if r.Content.KeywordDensityMax != 3.0 {
		t.Errorf("density max must clamp to 3.0, got %f", r.Content.KeywordDensityMax)
	}
	if r.Content.KeywordCountMin != 3 {
		t.Errorf("keyword count min must floor at 3, got %d", r.Content.KeywordCountMin)
	}
	if r.Structure.HeadingMin != 2 {
		t.Errorf("heading min must floor at 2, got %d", r.Structure.HeadingMin)
	}

	p = samplePattern()
	p.AvgTitleLength = 10
	p.AvgKeywordDensity = 0.2
	r = FromPattern(p).Rules
	if r.Title.MinLength != 15 {
		t.Errorf("title min must floor at 15, got %d", r.Title.MinLength)
	}
	if r.Content.KeywordDensityMin != 0.3 {
		t.Errorf("density min must floor at 0.3, got %f", r.Content.KeywordDensityMin)
	}
}

func TestBestPosition(t *testing.T) {
	tests := []struct {
		front, middle, end float64
		want               string
	}{
		{0.6, 0.3, 0.1, "front"},
		{0.2, 0.5, 0.3, "middle"},
		{0.1, 0.2, 0.7, "end"},
		{0.4, 0.4, 0.2, "front"}, // tie resolves front first
		{0.0, 0.5, 0.5, "middle"},
		{0, 0, 0, "front"},
	}
	for _, tt := range tests {
		if got := bestPosition(tt.front, tt.middle, tt.end); got != tt.want {
			t.Errorf("bestPosition(%v, %v, %v) = %q, want %q",
				tt.front, tt.middle, tt.end, got, tt.want)
		}
	}
}

func TestRenderMarkdownDeterministic(t *testing.T) {
	g := FromPattern(samplePattern())
	first := RenderMarkdown(g)
	second := RenderMarkdown(g)
	if first != second {
		t.Error("the same guide must render to identical bytes")
	}
	if !strings.HasPrefix(first, "# Writing Guide: hospital\n") {
		t.Errorf("unexpected heading: %q", strings.SplitN(first, "\n", 2)[0])
	}
	if !strings.Contains(first, "Based on 50 analyzed top-ranked posts") {
		t.Error("data-driven guides must cite the sample count")
	}
	for _, section := range []string{"## Title", "## Content", "## Media", "## Structure"} {
		if !strings.Contains(first, section) {
			t.Errorf("missing section %q", section)
		}
	}
}

func TestRenderMarkdownFallbackNotice(t *testing.T) {
	g := NewGenerator(openTestDB(t)).Generate("fashion")
	md := RenderMarkdown(g)
	if !strings.Contains(md, "baseline recommendations") {
		t.Error("fallback guides must carry the baseline notice")
	}
}
