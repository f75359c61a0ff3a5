package database

import (
	"database/sql"
)

// GeneralCategory is the fallback category. Its aggregate pools all records
// across categories so it acts as a global baseline.
const GeneralCategory = "general"

const recordColumns = `id, keyword, rank, source_id, url, title_length, title_has_keyword,
	title_keyword_position, content_length, image_count, video_count, heading_count,
	keyword_count, keyword_density, has_map, has_external_link, like_count, comment_count,
	post_age_days, category, data_quality, analyzed_at`

// UpsertRecord inserts a record or fully overwrites the existing row for the
// same (keyword, url) pair.
func (db *DB) UpsertRecord(rec *AnalysisRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO analysis_records (keyword, rank, source_id, url, title_length,
			title_has_keyword, title_keyword_position, content_length, image_count,
			video_count, heading_count, keyword_count, keyword_density, has_map,
			has_external_link, like_count, comment_count, post_age_days, category, data_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword, url) DO UPDATE SET
			rank = excluded.rank,
			source_id = excluded.source_id,
			title_length = excluded.title_length,
			title_has_keyword = excluded.title_has_keyword,
			title_keyword_position = excluded.title_keyword_position,
			content_length = excluded.content_length,
			image_count = excluded.image_count,
			video_count = excluded.video_count,
			heading_count = excluded.heading_count,
			keyword_count = excluded.keyword_count,
			keyword_density = excluded.keyword_density,
			has_map = excluded.has_map,
			has_external_link = excluded.has_external_link,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			post_age_days = excluded.post_age_days,
			category = excluded.category,
			data_quality = excluded.data_quality,
			analyzed_at = datetime('now')`,
		rec.Keyword, rec.Rank, rec.SourceID, rec.URL, rec.TitleLength,
		boolInt(rec.TitleHasKeyword), rec.TitleKeywordPosition, rec.ContentLength,
		rec.ImageCount, rec.VideoCount, rec.HeadingCount, rec.KeywordCount,
		rec.KeywordDensity, boolInt(rec.HasMap), boolInt(rec.HasExternalLink),
		rec.LikeCount, rec.CommentCount, rec.PostAgeDays, rec.Category, rec.DataQuality,
	)
	return err
}

// RecordsByCategory returns records for a category with content_length above
// the floor, ordered by analyzed_at DESC. The general category pools all
// records regardless of their classified category.
func (db *DB) RecordsByCategory(category string, minContentLength int) ([]AnalysisRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM analysis_records WHERE content_length > ?`
	args := []any{minContentLength}
	if category != GeneralCategory {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY analyzed_at DESC, id DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord returns the record for a (keyword, url) pair, or nil.
func (db *DB) GetRecord(keyword, url string) (*AnalysisRecord, error) {
	row := db.conn.QueryRow(
		`SELECT `+recordColumns+` FROM analysis_records WHERE keyword = ? AND url = ?`,
		keyword, url,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AggregateStatsFor computes the full aggregate row for a category in a
// single pass over qualifying records (content_length above the floor).
// A SampleCount of 0 means no qualifying data; the remaining fields are then
// sentinels, not zero-valued means. The keyword-position fractions use the
// full qualifying record set as denominator, so records with position 'none'
// dilute all three fractions.
func (db *DB) AggregateStatsFor(category string, minContentLength int) (*RawAggregate, error) {
	query := `SELECT COUNT(*),
		COALESCE(AVG(title_length), 0),
		COALESCE(AVG(content_length), 0),
		COALESCE(AVG(image_count), 0),
		COALESCE(AVG(video_count), 0),
		COALESCE(AVG(heading_count), 0),
		COALESCE(AVG(keyword_count), 0),
		COALESCE(AVG(keyword_density), 0),
		COALESCE(MIN(content_length), 0),
		COALESCE(MAX(content_length), 0),
		COALESCE(MIN(image_count), 0),
		COALESCE(MAX(image_count), 0),
		COALESCE(AVG(title_has_keyword), 0),
		COALESCE(AVG(has_map), 0),
		COALESCE(AVG(has_external_link), 0),
		COALESCE(AVG(CASE WHEN video_count > 0 THEN 1.0 ELSE 0.0 END), 0),
		COALESCE(AVG(CASE WHEN title_keyword_position = 'front' THEN 1.0 ELSE 0.0 END), 0),
		COALESCE(AVG(CASE WHEN title_keyword_position = 'middle' THEN 1.0 ELSE 0.0 END), 0),
		COALESCE(AVG(CASE WHEN title_keyword_position = 'end' THEN 1.0 ELSE 0.0 END), 0)
	FROM analysis_records WHERE content_length > ?`
	args := []any{minContentLength}
	if category != GeneralCategory {
		query += " AND category = ?"
		args = append(args, category)
	}

	var agg RawAggregate
	err := db.conn.QueryRow(query, args...).Scan(
		&agg.SampleCount,
		&agg.AvgTitleLength, &agg.AvgContentLength, &agg.AvgImageCount,
		&agg.AvgVideoCount, &agg.AvgHeadingCount, &agg.AvgKeywordCount,
		&agg.AvgKeywordDensity,
		&agg.MinContentLength, &agg.MaxContentLength,
		&agg.MinImageCount, &agg.MaxImageCount,
		&agg.TitleKeywordRate, &agg.MapRate, &agg.ExternalLinkRate, &agg.VideoRate,
		&agg.FrontRate, &agg.MiddleRate, &agg.EndRate,
	)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ContentLengthValues returns qualifying content lengths sorted ascending.
func (db *DB) ContentLengthValues(category string, minContentLength int) ([]int, error) {
	return db.metricValues("content_length", category, minContentLength)
}

// ImageCountValues returns qualifying image counts sorted ascending.
func (db *DB) ImageCountValues(category string, minContentLength int) ([]int, error) {
	return db.metricValues("image_count", category, minContentLength)
}

func (db *DB) metricValues(column, category string, minContentLength int) ([]int, error) {
	query := `SELECT ` + column + ` FROM analysis_records WHERE content_length > ?`
	args := []any{minContentLength}
	if category != GeneralCategory {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY " + column + " ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// RecordCountsByCategory returns the number of stored records per category.
func (db *DB) RecordCountsByCategory() (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT category, COUNT(*) FROM analysis_records GROUP BY category",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]AnalysisRecord, error) {
	var records []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var hasKeyword, hasMap, hasLink int
		if err := rows.Scan(&rec.ID, &rec.Keyword, &rec.Rank, &rec.SourceID, &rec.URL,
			&rec.TitleLength, &hasKeyword, &rec.TitleKeywordPosition, &rec.ContentLength,
			&rec.ImageCount, &rec.VideoCount, &rec.HeadingCount, &rec.KeywordCount,
			&rec.KeywordDensity, &hasMap, &hasLink, &rec.LikeCount, &rec.CommentCount,
			&rec.PostAgeDays, &rec.Category, &rec.DataQuality, &rec.AnalyzedAt); err != nil {
			return nil, err
		}
		rec.TitleHasKeyword = hasKeyword != 0
		rec.HasMap = hasMap != 0
		rec.HasExternalLink = hasLink != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row *sql.Row) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	var hasKeyword, hasMap, hasLink int
	if err := row.Scan(&rec.ID, &rec.Keyword, &rec.Rank, &rec.SourceID, &rec.URL,
		&rec.TitleLength, &hasKeyword, &rec.TitleKeywordPosition, &rec.ContentLength,
		&rec.ImageCount, &rec.VideoCount, &rec.HeadingCount, &rec.KeywordCount,
		&rec.KeywordDensity, &hasMap, &hasLink, &rec.LikeCount, &rec.CommentCount,
		&rec.PostAgeDays, &rec.Category, &rec.DataQuality, &rec.AnalyzedAt); err != nil {
		return nil, err
	}
	rec.TitleHasKeyword = hasKeyword != 0
	rec.HasMap = hasMap != 0
	rec.HasExternalLink = hasLink != 0
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
