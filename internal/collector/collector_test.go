package collector

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"stepchain/internal/core"
)

func TestCollector_CollectsEvents(t *testing.T) {
	c := NewCollector()
	c.Report(core.Event{Step: "a", Success: true, Duration: 10 * time.Millisecond})
	c.Report(core.Event{Step: "b", Success: false, Error: "boom"})
	c.Close()

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Step != "a" || events[1].Step != "b" {
		t.Errorf("events out of order: %v", events)
	}
}

func TestCollector_ConcurrentReports(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Report(core.Event{Step: "s", Success: true})
			}
		}()
	}
	wg.Wait()
	c.Close()

	if got := len(c.Events()) + c.Dropped(); got != 500 {
		t.Errorf("expected 500 events recorded or dropped, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	events := []core.Event{
		{RunID: "r1", Step: "open", Depth: 0, Success: true, Duration: 5 * time.Millisecond, WorstCase: 10 * time.Millisecond},
		{RunID: "r1", Step: "dispatch click #go", Depth: 1, Success: true, Duration: 30 * time.Millisecond, WorstCase: 10 * time.Millisecond},
		{RunID: "r1", Step: "wait 100ms", Depth: 1, Success: false, Error: "late", Duration: 100 * time.Millisecond, WorstCase: 100 * time.Millisecond},
		{RunID: "r1", Step: "click #go", Depth: 0, Success: false, Error: "late", Duration: 130 * time.Millisecond, WorstCase: 110 * time.Millisecond},
	}

	s := Summarize(events, time.Second)
	if s.RunID != "r1" {
		t.Errorf("expected run id r1, got %q", s.RunID)
	}
	if s.Passed != 2 || s.Failed != 2 {
		t.Errorf("expected 2 passed / 2 failed, got %d / %d", s.Passed, s.Failed)
	}
	if s.WorstCase != 120*time.Millisecond {
		t.Errorf("expected top-level worst case 120ms, got %v", s.WorstCase)
	}
	if s.Failure == nil || s.Failure.Name != "wait 100ms" {
		t.Errorf("expected first failure 'wait 100ms', got %+v", s.Failure)
	}
	if len(s.Overruns) != 2 || s.Overruns[0].Name != "dispatch click #go" {
		t.Errorf("unexpected overruns: %+v", s.Overruns)
	}
	if s.OK() {
		t.Error("summary with failures reported OK")
	}
}

func TestFormatText(t *testing.T) {
	s := Summarize([]core.Event{
		{RunID: "r2", Step: "login", Success: false, Error: "wrong user\nexpected: a\nactual: b", WorstCase: time.Second},
	}, 2*time.Second)

	var buf bytes.Buffer
	FormatText(&buf, "login flow", s)
	out := buf.String()

	for _, want := range []string{"stepchain - login flow", "FAILED (0 passed, 1 failed)", "Failure in login:", "  expected: a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatText_Empty(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, "x", Summarize(nil, 0))
	if !strings.Contains(buf.String(), "No steps recorded") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	s := Summarize([]core.Event{
		{RunID: "r3", Step: "a", Success: true, Duration: 2 * time.Millisecond, WorstCase: 10 * time.Millisecond},
	}, 1500*time.Millisecond)

	var buf bytes.Buffer
	if err := FormatJSON(&buf, "smoke", s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out["ok"] != true || out["runId"] != "r3" || out["duration"] != "1.50s" {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
	if _, ok := out["failure"]; ok {
		t.Error("failure should be omitted on success")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.50s"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
