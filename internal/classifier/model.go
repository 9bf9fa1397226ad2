package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/telemetry"
)

const (
	// completionMaxTokens bounds a single batch completion response.
	completionMaxTokens = 700
	// completionTemperature keeps batch responses close to deterministic.
	completionTemperature = 0.2

	// Fallback confidences for the different failure modes.
	noKeyConfidence      = 0.4
	noResultConfidence   = 0.4
	callFailedConfidence = 0.3

	// defaultItemConfidence is assumed when the model omits a confidence.
	defaultItemConfidence = 0.5

	// errReasonLimit bounds how much of an error message lands in a reason tag.
	errReasonLimit = 120
	// rawLogLimit bounds how much raw model output is logged on parse failure.
	rawLogLimit = 300
)

// Item is one record of a model-classifier batch.
type Item struct {
	ShortID string `json:"shortId"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
}

// ModelClassifier classifies batches of rule-miss URLs through the hosted
// completion API. Every input item is guaranteed a result; failures of any
// kind produce per-item synthetic fallbacks instead of errors.
type ModelClassifier struct {
	client  llm.CompletionClient
	logger  Logger
	metrics *telemetry.Metrics
}

// NewModelClassifier creates a model classifier. A disabled client is
// logged once here; after that every batch silently takes the no-credential
// fallback. metrics may be nil.
func NewModelClassifier(client llm.CompletionClient, logger Logger, metrics *telemetry.Metrics) *ModelClassifier {
	if !client.Enabled() {
		logger.Warn("completion api credential missing, model classifier degraded to fallback results")
	}
	return &ModelClassifier{client: client, logger: logger, metrics: metrics}
}

const systemPrompt = "You are a URL categorization engine. " +
	"Return JSON only (no markdown). " +
	"Respond with {\"items\":[{\"shortId\",\"category\",\"confidence\",\"reason\"}]}. " +
	"Allowed categories: news, shopping, video, blog, docs, community, social, dev, search, other. " +
	"Confidence must be between 0 and 1."

// batchPayload is the request body embedded in the user prompt.
type batchPayload struct {
	Task  string `json:"task"`
	Items []Item `json:"items"`
}

// batchResponse is the shape the model is instructed to return.
type batchResponse struct {
	Items []responseItem `json:"items"`
}

type responseItem struct {
	ShortID    string   `json:"shortId"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
}

// Classify sends one completion request for the whole batch and returns a
// classification per input id. The call itself never aborts a run.
func (m *ModelClassifier) Classify(ctx context.Context, batch []Item) map[string]domain.Classification {
	if len(batch) == 0 {
		return map[string]domain.Classification{}
	}

	if m.metrics != nil {
		m.metrics.BatchSize.Observe(float64(len(batch)))
	}

	if !m.client.Enabled() {
		m.recordFallbacks("no_api_key", len(batch))
		return m.uniformFallback(batch, noKeyConfidence, "no_api_key")
	}

	payload, err := json.Marshal(batchPayload{Task: "categorize_urls", Items: batch})
	if err != nil {
		m.recordFallbacks("call_failed", len(batch))
		return m.uniformFallback(batch, callFailedConfidence, "llm_payload_encode_failed")
	}

	raw, err := m.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      string(payload),
		MaxTokens:   completionMaxTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		m.logger.Warn("model classification call failed",
			"batch_size", len(batch),
			"error", err,
		)
		m.recordFallbacks("call_failed", len(batch))
		return m.uniformFallback(batch, callFailedConfidence, errReason(err))
	}

	var parsed batchResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(raw)), &parsed); err != nil {
		m.logger.Warn("model response is not valid JSON",
			"batch_size", len(batch),
			"raw_head", truncate(raw, rawLogLimit),
		)
		m.recordFallbacks("parse_failed", len(batch))
		return m.uniformFallback(batch, callFailedConfidence, "llm_json_parse_failed")
	}

	out := make(map[string]domain.Classification, len(batch))
	for _, item := range parsed.Items {
		if item.ShortID == "" {
			continue
		}

		confidence := defaultItemConfidence
		if item.Confidence != nil {
			confidence = *item.Confidence
		}

		out[item.ShortID] = domain.Classification{
			Category:   domain.SafeCategory(item.Category),
			Confidence: confidence,
			Reason:     item.Reason,
			Source:     domain.SourceLLM,
		}.Sanitized()
	}

	// The model may drop items; every input id still gets a result.
	for _, item := range batch {
		if _, ok := out[item.ShortID]; !ok {
			m.recordFallbacks("no_result", 1)
			out[item.ShortID] = fallbackClassification(noResultConfidence, "llm_no_result")
		}
	}

	return out
}

func (m *ModelClassifier) recordFallbacks(reason string, n int) {
	if m.metrics == nil {
		return
	}
	m.metrics.ModelFallbacks.WithLabelValues(reason).Add(float64(n))
}

// uniformFallback returns the same synthetic result for every batch item.
func (m *ModelClassifier) uniformFallback(batch []Item, confidence float64, reason string) map[string]domain.Classification {
	out := make(map[string]domain.Classification, len(batch))
	for _, item := range batch {
		out[item.ShortID] = fallbackClassification(confidence, reason)
	}
	return out
}

func fallbackClassification(confidence float64, reason string) domain.Classification {
	return domain.Classification{
		Category:   domain.CategoryOther,
		Confidence: confidence,
		Reason:     reason,
		Source:     domain.SourceLLM,
	}.Sanitized()
}

func errReason(err error) string {
	return fmt.Sprintf("llm_error:%s", truncate(err.Error(), errReasonLimit))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return strings.ToValidUTF8(s[:limit], "")
}
