package database

import (
	"math"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(keyword, url, category string, contentLength int) *AnalysisRecord {
	return &AnalysisRecord{
		Keyword:              keyword,
		Rank:                 1,
		SourceID:             "blogger-1",
		URL:                  url,
		TitleLength:          30,
		TitleHasKeyword:      true,
		TitleKeywordPosition: "front",
		ContentLength:        contentLength,
		ImageCount:           5,
		VideoCount:           0,
		HeadingCount:         3,
		KeywordCount:         5,
		KeywordDensity:       2.5,
		HasMap:               true,
		Category:             category,
		DataQuality:          "high",
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestUpsertRecordOverwrites(t *testing.T) {
	db := openTestDB(t)

	rec := testRecord("강남 피부과", "https://blog.example.com/1", "hospital", 1800)
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	rec.ContentLength = 2500
	rec.ImageCount = 9
	rec.Rank = 2
	if err := db.UpsertRecord(rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := db.RecordsByCategory("hospital", 100)
	if err != nil {
		t.Fatalf("RecordsByCategory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly 1 record after re-analysis, got %d", len(records))
	}
	got := records[0]
	if got.ContentLength != 2500 || got.ImageCount != 9 || got.Rank != 2 {
		t.Errorf("expected overwritten values, got content=%d images=%d rank=%d",
			got.ContentLength, got.ImageCount, got.Rank)
	}
}

func TestUpsertSameURLDifferentKeyword(t *testing.T) {
	db := openTestDB(t)

	db.UpsertRecord(testRecord("강남 피부과", "https://blog.example.com/1", "hospital", 1800))
	db.UpsertRecord(testRecord("피부과 후기", "https://blog.example.com/1", "hospital", 1900))

	records, err := db.RecordsByCategory("hospital", 100)
	if err != nil {
		t.Fatalf("RecordsByCategory: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("distinct keywords for the same url should coexist, got %d records", len(records))
	}
}

func TestRecordsByCategoryFloor(t *testing.T) {
	db := openTestDB(t)

	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/1", "hospital", 1800))
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/2", "hospital", 50))
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/3", "hospital", 100))

	records, err := db.RecordsByCategory("hospital", 100)
	if err != nil {
		t.Fatalf("RecordsByCategory: %v", err)
	}
	// Floor is exclusive: content_length must be strictly greater than 100.
	if len(records) != 1 {
		t.Fatalf("expected 1 qualifying record, got %d", len(records))
	}
	if records[0].ContentLength != 1800 {
		t.Errorf("expected the 1800-char record, got %d", records[0].ContentLength)
	}
}

func TestAggregateStatsFor(t *testing.T) {
	db := openTestDB(t)

	r1 := testRecord("강남 피부과", "https://a.com/1", "hospital", 1800)
	r2 := testRecord("강남 피부과", "https://a.com/2", "hospital", 2200)
	r2.TitleHasKeyword = false
	r2.TitleKeywordPosition = "none"
	r2.HasMap = false
	r2.HasExternalLink = true
	r2.VideoCount = 1
	r2.ImageCount = 7
	db.UpsertRecord(r1)
	db.UpsertRecord(r2)
	// Below the floor: must not count.
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/3", "hospital", 80))

	agg, err := db.AggregateStatsFor("hospital", 100)
	if err != nil {
		t.Fatalf("AggregateStatsFor: %v", err)
	}

	if agg.SampleCount != 2 {
		t.Fatalf("expected sampleCount 2, got %d", agg.SampleCount)
	}
	if !almostEqual(agg.AvgContentLength, 2000) {
		t.Errorf("expected avg content 2000, got %f", agg.AvgContentLength)
	}
	if agg.MinContentLength != 1800 || agg.MaxContentLength != 2200 {
		t.Errorf("expected content range 1800-2200, got %d-%d",
			agg.MinContentLength, agg.MaxContentLength)
	}
	if !almostEqual(agg.TitleKeywordRate, 0.5) {
		t.Errorf("expected title keyword rate 0.5, got %f", agg.TitleKeywordRate)
	}
	if !almostEqual(agg.MapRate, 0.5) || !almostEqual(agg.ExternalLinkRate, 0.5) {
		t.Errorf("expected map and link rates 0.5, got %f and %f", agg.MapRate, agg.ExternalLinkRate)
	}
	if !almostEqual(agg.VideoRate, 0.5) {
		t.Errorf("expected video rate 0.5, got %f", agg.VideoRate)
	}
	// Position 'none' stays in the denominator: front is 1 of 2 records.
	if !almostEqual(agg.FrontRate, 0.5) || agg.MiddleRate != 0 || agg.EndRate != 0 {
		t.Errorf("expected position fractions 0.5/0/0, got %f/%f/%f",
			agg.FrontRate, agg.MiddleRate, agg.EndRate)
	}
}

func TestAggregateStatsForEmptyIsSentinel(t *testing.T) {
	db := openTestDB(t)

	agg, err := db.AggregateStatsFor("hospital", 100)
	if err != nil {
		t.Fatalf("AggregateStatsFor: %v", err)
	}
	if agg.SampleCount != 0 {
		t.Errorf("expected sampleCount 0 on empty category, got %d", agg.SampleCount)
	}
}

func TestGeneralPoolsAllCategories(t *testing.T) {
	db := openTestDB(t)

	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/1", "hospital", 1800))
	db.UpsertRecord(testRecord("홍대 맛집", "https://a.com/2", "restaurant", 2200))
	db.UpsertRecord(testRecord("주말 나들이", "https://a.com/3", "general", 2000))

	agg, err := db.AggregateStatsFor("general", 100)
	if err != nil {
		t.Fatalf("AggregateStatsFor: %v", err)
	}
	if agg.SampleCount != 3 {
		t.Errorf("general should pool all categories: expected 3 samples, got %d", agg.SampleCount)
	}

	hospital, err := db.AggregateStatsFor("hospital", 100)
	if err != nil {
		t.Fatalf("AggregateStatsFor: %v", err)
	}
	if hospital.SampleCount != 1 {
		t.Errorf("hospital should only see its own records: expected 1, got %d", hospital.SampleCount)
	}
}

func TestContentLengthValuesSorted(t *testing.T) {
	db := openTestDB(t)

	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/1", "hospital", 2200))
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/2", "hospital", 1800))
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/3", "hospital", 2000))

	values, err := db.ContentLengthValues("hospital", 100)
	if err != nil {
		t.Fatalf("ContentLengthValues: %v", err)
	}
	want := []int{1800, 2000, 2200}
	if len(values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(values))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d]: expected %d, got %d", i, want[i], values[i])
		}
	}
}

func TestUpsertPatternReplaces(t *testing.T) {
	db := openTestDB(t)

	p := &AggregatedPattern{Category: "hospital", SampleCount: 5, AvgContentLength: 1500}
	if err := db.UpsertPattern(p); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	p.SampleCount = 8
	p.AvgContentLength = 1900
	if err := db.UpsertPattern(p); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.GetPattern("hospital")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if got == nil {
		t.Fatal("expected a pattern")
	}
	if got.SampleCount != 8 || !almostEqual(got.AvgContentLength, 1900) {
		t.Errorf("expected replaced pattern, got samples=%d avg=%f",
			got.SampleCount, got.AvgContentLength)
	}

	patterns, err := db.GetAllPatterns()
	if err != nil {
		t.Fatalf("GetAllPatterns: %v", err)
	}
	if len(patterns) != 1 {
		t.Errorf("expected a single row per category, got %d", len(patterns))
	}
}

func TestGetPatternMissing(t *testing.T) {
	db := openTestDB(t)

	p, err := db.GetPattern("travel")
	if err != nil {
		t.Fatalf("GetPattern: %v", err)
	}
	if p != nil {
		t.Error("expected nil for missing pattern")
	}
}

func TestRecordCountsAndStats(t *testing.T) {
	db := openTestDB(t)

	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/1", "hospital", 1800))
	db.UpsertRecord(testRecord("강남 피부과", "https://a.com/2", "hospital", 2000))
	db.UpsertRecord(testRecord("홍대 맛집", "https://a.com/3", "restaurant", 2200))
	db.UpsertPattern(&AggregatedPattern{Category: "hospital", SampleCount: 2})

	counts, err := db.RecordCountsByCategory()
	if err != nil {
		t.Fatalf("RecordCountsByCategory: %v", err)
	}
	if counts["hospital"] != 2 || counts["restaurant"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("expected 3 total records, got %d", stats.TotalRecords)
	}
	if stats.Keywords != 2 {
		t.Errorf("expected 2 distinct keywords, got %d", stats.Keywords)
	}
	if stats.Patterns != 1 {
		t.Errorf("expected 1 pattern, got %d", stats.Patterns)
	}
}
