package database

// AnalysisRecord is one observation of a single ranked search result for a
// single keyword. Unique on (keyword, url); re-analysis overwrites in place.
type AnalysisRecord struct {
	ID                   int64   `json:"id"`
	Keyword              string  `json:"keyword"`
	Rank                 int     `json:"rank"`
	SourceID             string  `json:"source_id"`
	URL                  string  `json:"url"`
	TitleLength          int     `json:"title_length"`
	TitleHasKeyword      bool    `json:"title_has_keyword"`
	TitleKeywordPosition string  `json:"title_keyword_position"` // front, middle, end, none
	ContentLength        int     `json:"content_length"`
	ImageCount           int     `json:"image_count"`
	VideoCount           int     `json:"video_count"`
	HeadingCount         int     `json:"heading_count"`
	KeywordCount         int     `json:"keyword_count"`
	KeywordDensity       float64 `json:"keyword_density"` // occurrences per 1000 chars
	HasMap               bool    `json:"has_map"`
	HasExternalLink      bool    `json:"has_external_link"`
	LikeCount            int     `json:"like_count"`
	CommentCount         int     `json:"comment_count"`
	PostAgeDays          *int    `json:"post_age_days,omitempty"`
	Category             string  `json:"category"`
	DataQuality          string  `json:"data_quality"` // low, medium, high
	AnalyzedAt           *string `json:"analyzed_at,omitempty"`
}

// AggregatedPattern is the current rollup of all qualifying AnalysisRecords
// in one category. One row per category, replaced in full on recompute.
type AggregatedPattern struct {
	Category          string  `json:"category"`
	SampleCount       int     `json:"sample_count"`
	AvgTitleLength    float64 `json:"avg_title_length"`
	AvgContentLength  float64 `json:"avg_content_length"`
	AvgImageCount     float64 `json:"avg_image_count"`
	AvgVideoCount     float64 `json:"avg_video_count"`
	AvgHeadingCount   float64 `json:"avg_heading_count"`
	AvgKeywordCount   float64 `json:"avg_keyword_count"`
	AvgKeywordDensity float64 `json:"avg_keyword_density"`
	MinContentLength  int     `json:"min_content_length"`
	MaxContentLength  int     `json:"max_content_length"`
	MinImageCount     int     `json:"min_image_count"`
	MaxImageCount     int     `json:"max_image_count"`
	TitleKeywordRate  float64 `json:"title_keyword_rate"`
	MapRate           float64 `json:"map_rate"`
	ExternalLinkRate  float64 `json:"external_link_rate"`
	VideoRate         float64 `json:"video_rate"`
	FrontRate         float64 `json:"front_rate"`
	MiddleRate        float64 `json:"middle_rate"`
	EndRate           float64 `json:"end_rate"`
	OptimalContentMin int     `json:"optimal_content_min"`
	OptimalContentMax int     `json:"optimal_content_max"`
	OptimalImageMin   int     `json:"optimal_image_min"`
	OptimalImageMax   int     `json:"optimal_image_max"`
	UpdatedAt         *string `json:"updated_at,omitempty"`
}

// RawAggregate is the single-pass aggregate row over qualifying records for
// one category. SampleCount == 0 is the "no data" sentinel; the other fields
// are meaningless in that case and must not be read as zero means.
type RawAggregate struct {
	SampleCount       int
	AvgTitleLength    float64
	AvgContentLength  float64
	AvgImageCount     float64
	AvgVideoCount     float64
	AvgHeadingCount   float64
	AvgKeywordCount   float64
	AvgKeywordDensity float64
	MinContentLength  int
	MaxContentLength  int
	MinImageCount     int
	MaxImageCount     int
	TitleKeywordRate  float64
	MapRate           float64
	ExternalLinkRate  float64
	VideoRate         float64
	FrontRate         float64
	MiddleRate        float64
	EndRate           float64
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRecords int
	Keywords     int
	Categories   int
	Patterns     int
	HighQuality  int
	LowQuality   int
}
