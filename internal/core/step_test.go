package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingReporter struct {
	events []Event
}

func (r *recordingReporter) Report(e Event) {
	r.events = append(r.events, e)
}

func TestMapVariables(t *testing.T) {
	vars := NewVariables()
	vars.Set("key", "value")
	val, ok := vars.Get("key")
	if !ok || val != "value" {
		t.Errorf("expected 'value', got %v", val)
	}
	_, ok = vars.Get("missing")
	if ok {
		t.Error("expected not found")
	}
}

func TestScope_CtxNeverNil(t *testing.T) {
	var nilScope *Scope
	assert.NotNil(t, nilScope.Ctx())
	assert.NotNil(t, (&Scope{}).Ctx())
}

func TestScope_Now(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Scope{Clock: NewFakeClock(start)}
	assert.Equal(t, start, s.Now())
}

func TestScope_ReportStampsRunID(t *testing.T) {
	rep := &recordingReporter{}
	s := &Scope{Reporter: rep, RunID: "run-1"}
	s.Report(Event{Step: "click", Success: true})

	if assert.Len(t, rep.events, 1) {
		assert.Equal(t, "run-1", rep.events[0].RunID)
		assert.Equal(t, "click", rep.events[0].Step)
	}

	// no reporter attached is a no-op
	(&Scope{}).Report(Event{Step: "ignored"})
}

type ctxKey struct{}

func TestScope_NestedCopiesAndDeepens(t *testing.T) {
	vars := NewVariables()
	parent := &Scope{Vars: vars}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	child := parent.Nested(ctx)

	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, 0, parent.Depth)
	assert.Equal(t, "v", child.Ctx().Value(ctxKey{}))
	assert.Nil(t, parent.Context)
	assert.Same(t, vars, child.Vars.(*MapVariables))
}
