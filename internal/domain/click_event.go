package domain

import (
	"time"
)

// ClickEvent represents a single redirect click. Events are immutable once
// written; identity is (ShortID, Timestamp). The timestamp is kept as the
// raw ISO-8601 string the ingestion layer recorded — it may be naive, in
// which case it is treated as UTC when parsed.
type ClickEvent struct {
	ShortID   string `db:"short_id"   json:"shortId"`
	Timestamp string `db:"ts"         json:"timestamp"`
	Referer   string `db:"referer"    json:"referer,omitempty"`
	UserAgent string `db:"user_agent" json:"userAgent,omitempty"`
	IPHash    string `db:"ip_hash"    json:"ipHash,omitempty"`
}

// clickTimeLayouts are tried in order when parsing event timestamps.
// Layouts without a zone are interpreted as UTC.
var clickTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseClickTime parses an event timestamp. Naive timestamps (no offset)
// are treated as UTC. The second return value is false for unparsable
// input, which callers must exclude rather than error on.
func ParseClickTime(ts string) (time.Time, bool) {
	for _, layout := range clickTimeLayouts {
		t, err := time.ParseInLocation(layout, ts, time.UTC)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Time parses the event's timestamp via ParseClickTime.
func (e *ClickEvent) Time() (time.Time, bool) {
	return ParseClickTime(e.Timestamp)
}
