package collector

import (
	"sort"
	"time"

	"stepchain/internal/core"
)

// Summary describes one scenario run.
type Summary struct {
	RunID     string
	Duration  time.Duration
	WorstCase time.Duration // sum of the top-level declared worst cases
	Passed    int
	Failed    int
	Dropped   int
	Failure   *StepSummary // first failing step, if any
	Steps     []StepSummary
	Overruns  []StepSummary // steps that took longer than declared
}

// StepSummary is the outcome of a single step.
type StepSummary struct {
	Name      string
	Depth     int
	Duration  time.Duration
	WorstCase time.Duration
	Error     string
}

// Overran reports whether the step exceeded its declared worst case.
func (s StepSummary) Overran() bool {
	return s.Duration > s.WorstCase
}

// Summarize computes a Summary from events in completion order. Pure
// function, no side effects.
func Summarize(events []core.Event, runDuration time.Duration) *Summary {
	s := &Summary{Duration: runDuration}

	for _, e := range events {
		if s.RunID == "" {
			s.RunID = e.RunID
		}
		step := StepSummary{
			Name:      e.Step,
			Depth:     e.Depth,
			Duration:  e.Duration,
			WorstCase: e.WorstCase,
			Error:     e.Error,
		}
		s.Steps = append(s.Steps, step)

		if e.Depth == 0 {
			s.WorstCase += e.WorstCase
		}
		if e.Success {
			s.Passed++
		} else {
			s.Failed++
			if s.Failure == nil {
				f := step
				s.Failure = &f
			}
		}
		if step.Overran() {
			s.Overruns = append(s.Overruns, step)
		}
	}

	sort.SliceStable(s.Overruns, func(i, j int) bool {
		return s.Overruns[i].Duration-s.Overruns[i].WorstCase > s.Overruns[j].Duration-s.Overruns[j].WorstCase
	})
	return s
}

// OK reports whether every recorded step succeeded.
func (s *Summary) OK() bool {
	return s.Failed == 0
}
