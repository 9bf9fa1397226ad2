package domain

import (
	"encoding/json"
	"time"
)

// TopURL is one entry of the top-URLs ranking.
type TopURL struct {
	ShortID string `json:"shortId"`
	Clicks  int64  `json:"clicks"`
}

// DomainCount is one entry of the top-domains histogram.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// CategoryCount is one entry of the category histogram.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// WeeklyStats is one aggregation snapshot over a rolling 7-day window.
// Field names match the JSON contract the trend consumers rely on.
type WeeklyStats struct {
	TotalURLs       int64            `json:"totalUrls"`
	TotalClicks     int64            `json:"totalClicks"`
	TopURLs         []TopURL         `json:"topUrls"`
	TopDomains      []DomainCount    `json:"topDomains"`
	CategoryCounts  []CategoryCount  `json:"categoryCounts"`
	ClicksByHour    map[string]int64 `json:"clicksByHour"`
	ClicksByDay     map[string]int64 `json:"clicksByDay"`
	ClicksByReferer map[string]int64 `json:"clicksByReferer"`
	PeakHour        string           `json:"peakHour,omitempty"`
	TopReferer      string           `json:"topReferer,omitempty"`
}

// Insights holds the generated narrative for a trend snapshot. New records
// carry separate admin and user entries; records written before the split
// carry a single plain narrative string, preserved in Legacy.
type Insights struct {
	Admin  []string `json:"admin,omitempty"`
	User   []string `json:"user,omitempty"`
	Legacy string   `json:"-"`
}

// IsLegacy reports whether this value came from a plain-string record.
func (i Insights) IsLegacy() bool {
	return i.Legacy != ""
}

// MarshalJSON emits legacy values as the original plain string and
// everything else as the {admin,user} object.
func (i Insights) MarshalJSON() ([]byte, error) {
	if i.IsLegacy() {
		return json.Marshal(i.Legacy)
	}
	type insightsObject Insights
	return json.Marshal(insightsObject(i))
}

// UnmarshalJSON accepts either the {admin,user} object or a legacy plain
// narrative string.
func (i *Insights) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*i = Insights{Legacy: legacy}
		return nil
	}

	type insightsObject Insights
	var obj insightsObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*i = Insights(obj)
	return nil
}

// TrendRecord is one persisted aggregation result. Records are append-only,
// keyed by (Period, GeneratedAt); the latest read takes the highest
// GeneratedAt for a period.
type TrendRecord struct {
	Period      string      `json:"period"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Stats       WeeklyStats `json:"stats"`
	Insights    Insights    `json:"insights"`
	Model       string      `json:"model,omitempty"`
	TotalURLs   int64       `json:"totalUrls"`
	TotalClicks int64       `json:"totalClicks"`
}
