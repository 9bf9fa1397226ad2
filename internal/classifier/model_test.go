package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonesrussell/linkpulse/internal/classifier"
	"github.com/jonesrussell/linkpulse/internal/domain"
	"github.com/jonesrussell/linkpulse/internal/llm"
	"github.com/jonesrussell/linkpulse/internal/logging"
)

// fakeClient scripts CompletionClient behavior for tests.
type fakeClient struct {
	enabled  bool
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) Enabled() bool { return f.enabled }

func (f *fakeClient) Model() string { return "test-model" }

func testBatch() []classifier.Item {
	return []classifier.Item{
		{ShortID: "aaa", URL: "https://unknown-1.example/x"},
		{ShortID: "bbb", URL: "https://unknown-2.example/y"},
	}
}

func TestModelClassifier_DisabledClientUniformFallback(t *testing.T) {
	client := &fakeClient{enabled: false}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), testBatch())

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for id, c := range results {
		if c.Category != domain.CategoryOther {
			t.Errorf("%s: category = %q, want other", id, c.Category)
		}
		if c.Confidence != 0.4 {
			t.Errorf("%s: confidence = %v, want 0.4", id, c.Confidence)
		}
		if c.Reason != "no_api_key" {
			t.Errorf("%s: reason = %q, want no_api_key", id, c.Reason)
		}
		if c.Source != domain.SourceLLM {
			t.Errorf("%s: source = %q, want llm", id, c.Source)
		}
	}
	if client.calls != 0 {
		t.Errorf("disabled client was called %d times", client.calls)
	}
}

func TestModelClassifier_CallFailureUniformFallback(t *testing.T) {
	client := &fakeClient{enabled: true, err: errors.New("connection refused")}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), testBatch())

	for id, c := range results {
		if c.Confidence != 0.3 {
			t.Errorf("%s: confidence = %v, want 0.3", id, c.Confidence)
		}
		if c.Category != domain.CategoryOther {
			t.Errorf("%s: category = %q, want other", id, c.Category)
		}
	}
}

func TestModelClassifier_ParseFailureUniformFallback(t *testing.T) {
	client := &fakeClient{enabled: true, response: "I could not categorize these, sorry!"}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), testBatch())

	for id, c := range results {
		if c.Confidence != 0.3 {
			t.Errorf("%s: confidence = %v, want 0.3", id, c.Confidence)
		}
		if c.Reason != "llm_json_parse_failed" {
			t.Errorf("%s: reason = %q", id, c.Reason)
		}
	}
}

func TestModelClassifier_ParsesFencedResponse(t *testing.T) {
	client := &fakeClient{
		enabled: true,
		response: "```json\n" +
			`{"items":[` +
			`{"shortId":"aaa","category":"video","confidence":0.9,"reason":"video platform"},` +
			`{"shortId":"bbb","category":"astrology","reason":"made up"}` +
			`]}` + "\n```",
	}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), testBatch())

	a := results["aaa"]
	if a.Category != domain.CategoryVideo || a.Confidence != 0.9 {
		t.Errorf("aaa = %+v", a)
	}

	// Unknown category coerced to other; omitted confidence defaults to 0.5.
	b := results["bbb"]
	if b.Category != domain.CategoryOther {
		t.Errorf("bbb category = %q, want other", b.Category)
	}
	if b.Confidence != 0.5 {
		t.Errorf("bbb confidence = %v, want 0.5", b.Confidence)
	}
}

func TestModelClassifier_DroppedItemsGetNoResultFallback(t *testing.T) {
	client := &fakeClient{
		enabled:  true,
		response: `{"items":[{"shortId":"aaa","category":"news","confidence":0.8,"reason":"ok"}]}`,
	}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), testBatch())

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	b := results["bbb"]
	if b.Confidence != 0.4 || b.Reason != "llm_no_result" {
		t.Errorf("dropped item fallback = %+v", b)
	}
}

func TestModelClassifier_EmptyBatch(t *testing.T) {
	client := &fakeClient{enabled: true}
	m := classifier.NewModelClassifier(client, logging.Nop{}, nil)

	results := m.Classify(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("empty batch produced %d results", len(results))
	}
	if client.calls != 0 {
		t.Errorf("empty batch hit the client %d times", client.calls)
	}
}
