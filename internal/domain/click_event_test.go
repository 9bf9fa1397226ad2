package domain_test

import (
	"testing"
	"time"

	"github.com/jonesrussell/linkpulse/internal/domain"
)

func TestParseClickTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{
			name: "rfc3339 with offset converts to utc",
			in:   "2026-08-30T18:30:00+09:00",
			want: time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "rfc3339 zulu",
			in:   "2026-08-30T09:30:00Z",
			want: time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "naive timestamp treated as utc",
			in:   "2026-08-30T09:30:00",
			want: time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "naive with fractional seconds",
			in:   "2026-08-30T09:30:00.123456",
			want: time.Date(2026, 8, 30, 9, 30, 0, 123456000, time.UTC),
			ok:   true,
		},
		{
			name: "garbage is not an error, just excluded",
			in:   "yesterday at nine",
			ok:   false,
		},
		{
			name: "empty string",
			in:   "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.ParseClickTime(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseClickTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Errorf("ParseClickTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClickEventTime(t *testing.T) {
	e := domain.ClickEvent{ShortID: "abc123", Timestamp: "2026-08-30T09:30:00Z"}
	got, ok := e.Time()
	if !ok {
		t.Fatal("expected parsable timestamp")
	}
	if got.Hour() != 9 {
		t.Errorf("hour = %d, want 9", got.Hour())
	}
}
