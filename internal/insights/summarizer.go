// Package insights turns a weekly stats snapshot into short admin- and
// user-facing narrative lists via the hosted completion API, with
// deterministic fallbacks when the call or the parse fails.
package insights

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logging"
)

const (
	// maxEntries bounds each insight list.
	maxEntries = 6

	// compactTopN is how many entries of each ranking are sent to the
	// model; the full snapshot would blow up the payload for no gain.
	compactTopN = 5

	// excerptLimit bounds the diagnostic excerpt of an unparsable response.
	excerptLimit = 200

	summaryMaxTokens   = 600
	summaryTemperature = 0.4
)

// Fixed fallback strings. The user-facing entry never carries error detail.
const (
	userApology = "Trend insights are temporarily unavailable. Please check back soon."

	adminDisabled    = "Insight generation skipped: no completion API credential configured."
	adminUnavailable = "Insight generation failed: completion API unavailable."
)

// Summarizer generates the insight narrative for a trend snapshot.
type Summarizer struct {
	client llm.CompletionClient
	logger logging.Logger
}

// NewSummarizer creates a summarizer. A disabled client is logged once;
// runs then always take the deterministic fallback.
func NewSummarizer(client llm.CompletionClient, logger logging.Logger) *Summarizer {
	if !client.Enabled() {
		logger.Warn("completion api credential missing, insight summarizer degraded to fallback text")
	}
	return &Summarizer{client: client, logger: logger}
}

const summarySystemPrompt = "You are a data analyst for a URL shortening service. " +
	"Return JSON only (no markdown): an object with exactly two string arrays, " +
	"\"admin\" and \"user\". " +
	"admin: up to 6 operational and marketing observations for service operators. " +
	"user: up to 6 audience-facing highlights only, no internal metrics. " +
	"Every entry must reference at least one figure from the provided stats."

// compactSnapshot is the reduced payload sent to the model.
type compactSnapshot struct {
	TotalURLs      int64                  `json:"totalUrls"`
	TotalClicks    int64                  `json:"totalClicks"`
	TopURLs        []domain.TopURL        `json:"topUrls"`
	TopDomains     []domain.DomainCount   `json:"topDomains"`
	CategoryCounts []domain.CategoryCount `json:"categoryCounts"`
	PeakHour       string                 `json:"peakHour,omitempty"`
	TopReferer     string                 `json:"topReferer,omitempty"`
}

// Summarize produces the insight pair for a snapshot. It never returns an
// error: transport failures and malformed responses both degrade to fixed
// fallback text, and any raw error detail stays out of the user array.
func (s *Summarizer) Summarize(ctx context.Context, snapshot domain.WeeklyStats) domain.Insights {
	if !s.client.Enabled() {
		return domain.Insights{
			Admin: []string{adminDisabled},
			User:  []string{userApology},
		}
	}

	payload, err := json.Marshal(compact(snapshot))
	if err != nil {
		// Snapshot structs always marshal; keep the fallback anyway.
		return domain.Insights{
			Admin: []string{adminUnavailable},
			User:  []string{userApology},
		}
	}

	raw, err := s.client.Complete(ctx, llm.Request{
		System:      summarySystemPrompt,
		Prompt:      string(payload),
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	if err != nil {
		s.logger.Warn("insight generation call failed", "error", err)
		return domain.Insights{
			Admin: []string{adminUnavailable},
			User:  []string{userApology},
		}
	}

	return s.parse(raw)
}

// parse validates and sanitizes the model response. A response that is not
// the expected two-array object yields a one-entry diagnostic admin list
// and the fixed user apology.
func (s *Summarizer) parse(raw string) domain.Insights {
	var parsed struct {
		Admin []string `json:"admin"`
		User  []string `json:"user"`
	}

	err := json.Unmarshal([]byte(llm.ExtractJSONObject(raw)), &parsed)
	admin := sanitizeEntries(parsed.Admin)
	user := sanitizeEntries(parsed.User)

	if err != nil || (len(admin) == 0 && len(user) == 0) {
		s.logger.Warn("insight response is not the expected shape",
			"raw_head", excerpt(raw),
		)
		return domain.Insights{
			Admin: []string{"Unparsable insight response: " + excerpt(raw)},
			User:  []string{userApology},
		}
	}

	return domain.Insights{Admin: admin, User: user}
}

// sanitizeEntries trims entries, drops empties and caps the list length.
func sanitizeEntries(entries []string) []string {
	out := make([]string, 0, min(len(entries), maxEntries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		out = append(out, e)
		if len(out) == maxEntries {
			break
		}
	}
	return out
}

func compact(s domain.WeeklyStats) compactSnapshot {
	return compactSnapshot{
		TotalURLs:      s.TotalURLs,
		TotalClicks:    s.TotalClicks,
		TopURLs:        headN(s.TopURLs, compactTopN),
		TopDomains:     headN(s.TopDomains, compactTopN),
		CategoryCounts: headN(s.CategoryCounts, compactTopN),
		PeakHour:       s.PeakHour,
		TopReferer:     s.TopReferer,
	}
}

func headN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func excerpt(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= excerptLimit {
		return raw
	}
	return strings.ToValidUTF8(raw[:excerptLimit], "")
}
