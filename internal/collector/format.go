package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// FormatText writes the summary in human-readable form.
func FormatText(w io.Writer, name string, s *Summary) {
	if len(s.Steps) == 0 {
		fmt.Fprintln(w, "No steps recorded")
		return
	}

	status := "PASSED"
	if !s.OK() {
		status = "FAILED"
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "stepchain - %s\n", name)
	fmt.Fprintln(w, strings.Repeat("=", len(name)+12))
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Run:        %s\n", s.RunID)
	fmt.Fprintf(w, "Status:     %s (%d passed, %d failed)\n", status, s.Passed, s.Failed)
	fmt.Fprintf(w, "Duration:   %s\n", FormatDuration(s.Duration))
	fmt.Fprintf(w, "Worst case: %s\n", FormatDuration(s.WorstCase))
	if s.Dropped > 0 {
		fmt.Fprintf(w, "Dropped:    %d events\n", s.Dropped)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Steps:")
	for _, step := range s.Steps {
		mark := "ok  "
		if step.Error != "" {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "  %s %-*s %8s / %s\n", mark, 30-2*step.Depth,
			strings.Repeat("  ", step.Depth)+step.Name,
			FormatDuration(step.Duration), FormatDuration(step.WorstCase))
	}

	if len(s.Overruns) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Over budget:")
		for _, step := range s.Overruns {
			fmt.Fprintf(w, "  %s took %s, declared %s\n",
				step.Name, FormatDuration(step.Duration), FormatDuration(step.WorstCase))
		}
	}

	if s.Failure != nil {
		fmt.Fprintln(w, "")
		fmt.Fprintf(w, "Failure in %s:\n", s.Failure.Name)
		for _, line := range strings.Split(s.Failure.Error, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// FormatJSON writes the summary as indented JSON.
func FormatJSON(w io.Writer, name string, s *Summary) error {
	output := struct {
		Scenario  string     `json:"scenario"`
		RunID     string     `json:"runId"`
		OK        bool       `json:"ok"`
		Duration  string     `json:"duration"`
		WorstCase string     `json:"worstCase"`
		Passed    int        `json:"passed"`
		Failed    int        `json:"failed"`
		Dropped   int        `json:"dropped,omitempty"`
		Failure   *jsonStep  `json:"failure,omitempty"`
		Steps     []jsonStep `json:"steps"`
		Overruns  []jsonStep `json:"overruns,omitempty"`
	}{
		Scenario:  name,
		RunID:     s.RunID,
		OK:        s.OK(),
		Duration:  FormatDuration(s.Duration),
		WorstCase: FormatDuration(s.WorstCase),
		Passed:    s.Passed,
		Failed:    s.Failed,
		Dropped:   s.Dropped,
		Steps:     toJSONSteps(s.Steps),
		Overruns:  toJSONSteps(s.Overruns),
	}
	if s.Failure != nil {
		f := toJSONStep(*s.Failure)
		output.Failure = &f
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

type jsonStep struct {
	Name      string `json:"name"`
	Depth     int    `json:"depth"`
	Duration  string `json:"duration"`
	WorstCase string `json:"worstCase"`
	Error     string `json:"error,omitempty"`
}

func toJSONStep(s StepSummary) jsonStep {
	return jsonStep{
		Name:      s.Name,
		Depth:     s.Depth,
		Duration:  FormatDuration(s.Duration),
		WorstCase: FormatDuration(s.WorstCase),
		Error:     s.Error,
	}
}

func toJSONSteps(steps []StepSummary) []jsonStep {
	if len(steps) == 0 {
		return nil
	}
	out := make([]jsonStep, len(steps))
	for i, s := range steps {
		out[i] = toJSONStep(s)
	}
	return out
}

// FormatDuration renders d with a unit suited to its size.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
