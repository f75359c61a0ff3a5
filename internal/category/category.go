// Package category maps free-text search keywords to a fixed set of topical
// categories used to segment pattern aggregation.
package category

import "strings"

// Default is returned when no category's triggers match.
const Default = "general"

// Category pairs a category id with its trigger substrings.
type Category struct {
	ID       string
	Triggers []string
}

// Categories is the ordered classification table. Order is part of the
// contract: for keywords matching several categories the first declared
// category wins.
var Categories = []Category{
	{"hospital", []string{"병원", "피부과", "치과", "의원", "한의원", "성형외과", "정형외과", "안과", "내과", "클리닉"}},
	{"restaurant", []string{"맛집", "식당", "카페", "레스토랑", "브런치", "디저트", "베이커리"}},
	{"beauty", []string{"미용실", "네일", "헤어", "메이크업", "왁싱", "에스테틱", "속눈썹"}},
	{"fitness", []string{"헬스", "필라테스", "요가", "피티", "크로스핏", "다이어트"}},
	{"education", []string{"학원", "과외", "인강", "공부법", "자격증", "유학"}},
	{"travel", []string{"여행", "호텔", "펜션", "리조트", "관광", "캠핑"}},
	{"fashion", []string{"패션", "코디", "쇼핑몰", "원피스", "신발"}},
	{"interior", []string{"인테리어", "가구", "리모델링", "시공", "이사"}},
	{"finance", []string{"대출", "보험", "재테크", "주식", "부동산", "세금"}},
	{"it", []string{"노트북", "스마트폰", "앱", "소프트웨어", "프로그래밍"}},
}

// Classify returns the id of the first category whose trigger occurs in the
// lowercased keyword, or Default when none match.
func Classify(keyword string) string {
	kw := strings.ToLower(keyword)
	for _, c := range Categories {
		for _, trigger := range c.Triggers {
			if strings.Contains(kw, trigger) {
				return c.ID
			}
		}
	}
	return Default
}

// IDs returns all category ids including the default, in declaration order.
func IDs() []string {
	ids := make([]string, 0, len(Categories)+1)
	for _, c := range Categories {
		ids = append(ids, c.ID)
	}
	return append(ids, Default)
}

// IsValid reports whether id names a known category (including the default).
func IsValid(id string) bool {
	if id == Default {
		return true
	}
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
