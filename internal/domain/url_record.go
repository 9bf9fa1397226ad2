package domain

import (
	"math"
	"time"
)

// ClassificationSource identifies which classifier produced a category.
type ClassificationSource string

// Classification sources.
const (
	SourceRule ClassificationSource = "rule"
	SourceLLM  ClassificationSource = "llm"
)

const (
	// MaxReasonLength bounds the free-text classification reason.
	MaxReasonLength = 200

	// confidencePrecision is the fixed decimal precision confidences are
	// stored at.
	confidencePrecision = 1000
)

// URLRecord represents one shortened URL. ShortID is immutable after
// creation; the category fields are set exactly once by a classification
// run and never rewritten.
type URLRecord struct {
	ShortID     string    `db:"short_id"     json:"shortId"`
	OriginalURL string    `db:"original_url" json:"originalUrl"`
	Title       string    `db:"title"        json:"title,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"createdAt"`
	ClickCount  int64     `db:"click_count"  json:"clickCount"`

	// Classification fields, absent until a run categorizes the record.
	Category           *Category             `db:"category"            json:"category,omitempty"`
	CategoryConfidence *float64              `db:"category_confidence" json:"categoryConfidence,omitempty"`
	CategorySource     *ClassificationSource `db:"category_source"     json:"categorySource,omitempty"`
	CategoryReason     *string               `db:"category_reason"     json:"categoryReason,omitempty"`
	CategorizedAt      *time.Time            `db:"categorized_at"      json:"categorizedAt,omitempty"`
}

// Categorized reports whether the record already carries a category.
func (u *URLRecord) Categorized() bool {
	return u.Category != nil
}

// Classification is the ephemeral result of classifying one URL.
type Classification struct {
	Category   Category             `json:"category"`
	Confidence float64              `json:"confidence"`
	Reason     string               `json:"reason"`
	Source     ClassificationSource `json:"source"`
}

// Sanitized returns a copy with the category coerced into the closed set,
// the confidence clamped, and the reason truncated.
func (c Classification) Sanitized() Classification {
	c.Category = SafeCategory(string(c.Category))
	c.Confidence = ClampConfidence(c.Confidence)
	c.Reason = TruncateReason(c.Reason)
	return c
}

// ClampConfidence clamps a confidence value into [0,1] and rounds it to
// three decimals (half up), the precision it is persisted at.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Floor(v*confidencePrecision+0.5) / confidencePrecision
}

// TruncateReason bounds a classification reason to MaxReasonLength runes.
func TruncateReason(reason string) string {
	runes := []rune(reason)
	if len(runes) <= MaxReasonLength {
		return reason
	}
	return string(runes[:MaxReasonLength])
}

// SafeCount coerces a possibly-negative counter to a non-negative value.
func SafeCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
