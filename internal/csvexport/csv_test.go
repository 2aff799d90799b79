package csvexport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEncode_QuotesAndEscapes(t *testing.T) {
	records := []Record{
		{{Key: "a", Value: 1}, {Key: "b", Value: `x"y`}},
	}

	body := string(Encode(records))
	if !strings.HasPrefix(body, BOM) {
		t.Fatalf("body does not start with BOM: %q", body)
	}

	lines := strings.Split(strings.TrimPrefix(body, BOM), "\n")
	if lines[0] != `"a","b"` {
		t.Errorf("header = %q, want %q", lines[0], `"a","b"`)
	}
	if lines[1] != `"1","x""y"` {
		t.Errorf("row = %q, want %q", lines[1], `"1","x""y"`)
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := string(Encode(nil)); got != BOM {
		t.Errorf("Encode(nil) = %q, want BOM only", got)
	}
	if got := string(Encode([]Record{})); got != BOM {
		t.Errorf("Encode(empty) = %q, want BOM only", got)
	}
}

func TestEncode_HeaderFromFirstRecord(t *testing.T) {
	records := []Record{
		{{Key: "id", Value: "T-1"}, {Key: "amount", Value: 10.5}},
		{{Key: "amount", Value: 3}, {Key: "extra", Value: "ignored"}},
	}

	body := strings.TrimPrefix(string(Encode(records)), BOM)
	want := "\"id\",\"amount\"\n\"T-1\",\"10.5\"\n\"\",\"3\"\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestStringify(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{0.25, "0.25"},
		{ts, "2024-01-02 03:04:05"},
		{time.Time{}, ""},
		{[]string{"velocity", "distance"}, "velocity,distance"},
	}

	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDownload(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Download(rec, "fraud\"_history.csv", []Record{{{Key: "k", Value: "v"}}})
	if err != nil {
		t.Fatalf("Download error = %v", err)
	}

	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="fraud_history.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Body.String(); got != BOM+"\"k\"\n\"v\"\n" {
		t.Errorf("body = %q", got)
	}
}
