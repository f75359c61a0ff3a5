package database

import (
	"database/sql"
)

const patternColumns = `category, sample_count, avg_title_length, avg_content_length,
	avg_image_count, avg_video_count, avg_heading_count, avg_keyword_count,
	avg_keyword_density, min_content_length, max_content_length, min_image_count,
	max_image_count, title_keyword_rate, map_rate, external_link_rate, video_rate,
	front_rate, middle_rate, end_rate, optimal_content_min, optimal_content_max,
	optimal_image_min, optimal_image_max, updated_at`

// UpsertPattern replaces the stored pattern row for the pattern's category.
func (db *DB) UpsertPattern(p *AggregatedPattern) error {
	_, err := db.conn.Exec(
		`INSERT INTO aggregated_patterns (category, sample_count, avg_title_length,
			avg_content_length, avg_image_count, avg_video_count, avg_heading_count,
			avg_keyword_count, avg_keyword_density, min_content_length, max_content_length,
			min_image_count, max_image_count, title_keyword_rate, map_rate,
			external_link_rate, video_rate, front_rate, middle_rate, end_rate,
			optimal_content_min, optimal_content_max, optimal_image_min, optimal_image_max,
			updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(category) DO UPDATE SET
			sample_count = excluded.sample_count,
			avg_title_length = excluded.avg_title_length,
			avg_content_length = excluded.avg_content_length,
			avg_image_count = excluded.avg_image_count,
			avg_video_count = excluded.avg_video_count,
			avg_heading_count = excluded.avg_heading_count,
			avg_keyword_count = excluded.avg_keyword_count,
			avg_keyword_density = excluded.avg_keyword_density,
			min_content_length = excluded.min_content_length,
			max_content_length = excluded.max_content_length,
			min_image_count = excluded.min_image_count,
			max_image_count = excluded.max_image_count,
			title_keyword_rate = excluded.title_keyword_rate,
			map_rate = excluded.map_rate,
			external_link_rate = excluded.external_link_rate,
			video_rate = excluded.video_rate,
			front_rate = excluded.front_rate,
			middle_rate = excluded.middle_rate,
			end_rate = excluded.end_rate,
			optimal_content_min = excluded.optimal_content_min,
			optimal_content_max = excluded.optimal_content_max,
			optimal_image_min = excluded.optimal_image_min,
			optimal_image_max = excluded.optimal_image_max,
			updated_at = datetime('now')`,
		p.Category, p.SampleCount, p.AvgTitleLength, p.AvgContentLength,
		p.AvgImageCount, p.AvgVideoCount, p.AvgHeadingCount, p.AvgKeywordCount,
		p.AvgKeywordDensity, p.MinContentLength, p.MaxContentLength,
		p.MinImageCount, p.MaxImageCount, p.TitleKeywordRate, p.MapRate,
		p.ExternalLinkRate, p.VideoRate, p.FrontRate, p.MiddleRate, p.EndRate,
		p.OptimalContentMin, p.OptimalContentMax, p.OptimalImageMin, p.OptimalImageMax,
	)
	return err
}

// GetPattern returns the stored pattern for a category, or nil if absent.
func (db *DB) GetPattern(category string) (*AggregatedPattern, error) {
	row := db.conn.QueryRow(
		`SELECT `+patternColumns+` FROM aggregated_patterns WHERE category = ?`,
		category,
	)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetAllPatterns returns all stored patterns ordered by category.
func (db *DB) GetAllPatterns() ([]AggregatedPattern, error) {
	rows, err := db.conn.Query(
		`SELECT ` + patternColumns + ` FROM aggregated_patterns ORDER BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []AggregatedPattern
	for rows.Next() {
		var p AggregatedPattern
		if err := rows.Scan(
			&p.Category, &p.SampleCount, &p.AvgTitleLength, &p.AvgContentLength,
			&p.AvgImageCount, &p.AvgVideoCount, &p.AvgHeadingCount, &p.AvgKeywordCount,
			&p.AvgKeywordDensity, &p.MinContentLength, &p.MaxContentLength,
			&p.MinImageCount, &p.MaxImageCount, &p.TitleKeywordRate, &p.MapRate,
			&p.ExternalLinkRate, &p.VideoRate, &p.FrontRate, &p.MiddleRate, &p.EndRate,
			&p.OptimalContentMin, &p.OptimalContentMax, &p.OptimalImageMin,
			&p.OptimalImageMax, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func scanPattern(row *sql.Row) (*AggregatedPattern, error) {
	var p AggregatedPattern
	if err := row.Scan(
		&p.Category, &p.SampleCount, &p.AvgTitleLength, &p.AvgContentLength,
		&p.AvgImageCount, &p.AvgVideoCount, &p.AvgHeadingCount, &p.AvgKeywordCount,
		&p.AvgKeywordDensity, &p.MinContentLength, &p.MaxContentLength,
		&p.MinImageCount, &p.MaxImageCount, &p.TitleKeywordRate, &p.MapRate,
		&p.ExternalLinkRate, &p.VideoRate, &p.FrontRate, &p.MiddleRate, &p.EndRate,
		&p.OptimalContentMin, &p.OptimalContentMax, &p.OptimalImageMin,
		&p.OptimalImageMax, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetStats returns aggregate counts for the status command and stats endpoint.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := db.conn.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT keyword), COUNT(DISTINCT category),
			COALESCE(SUM(CASE WHEN data_quality = 'high' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN data_quality = 'low' THEN 1 ELSE 0 END), 0)
		FROM analysis_records`,
	).Scan(&stats.TotalRecords, &stats.Keywords, &stats.Categories,
		&stats.HighQuality, &stats.LowQuality)
	if err != nil {
		return nil, err
	}

	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM aggregated_patterns",
	).Scan(&stats.Patterns); err != nil {
		return nil, err
	}

	return stats, nil
}
