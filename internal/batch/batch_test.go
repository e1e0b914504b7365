package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepchain/internal/batch"
	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/loop"
	"stepchain/internal/step"
)

type recorder struct {
	events []core.Event
}

func (r *recorder) Report(e core.Event) { r.events = append(r.events, e) }

// execute runs b on a fresh loop against page and waits for completion.
func execute(t *testing.T, b *batch.Batch, page *dom.Page, rep core.Reporter) error {
	t.Helper()
	l := loop.New()
	stop := l.Start(context.Background())
	defer stop()

	scope := &core.Scope{Loop: l, Reporter: rep, Vars: core.NewVariables()}
	if page != nil {
		scope.Document, scope.Input = page, page
	}
	res := make(chan error, 1)
	l.Post(func() { b.Execute(scope, func(err error) { res <- err }) })

	select {
	case err := <-res:
		return err
	case <-time.After(b.WorstCase() + 2*time.Second):
		t.Fatal("batch did not complete")
		return nil
	}
}

func fast() *batch.Batch {
	return batch.New(batch.WithShortWait(5*time.Millisecond), batch.WithPoll(10*time.Millisecond), batch.WithTimeout(200*time.Millisecond))
}

func TestNew_Defaults(t *testing.T) {
	b := batch.New()
	assert.Equal(t, batch.DefaultOptions(), b.Options())
	assert.Equal(t, batch.Options{Timeout: 10 * time.Second, ShortWait: 100 * time.Millisecond, Poll: 200 * time.Millisecond}, b.Options())
	assert.Zero(t, b.WorstCase())
}

func TestNested_CopiesOptions(t *testing.T) {
	parent := batch.New(batch.WithTimeout(time.Second))
	child := parent.Nested(batch.WithPoll(50 * time.Millisecond))

	assert.Equal(t, time.Second, child.Options().Timeout)
	assert.Equal(t, 50*time.Millisecond, child.Options().Poll)
	assert.Equal(t, batch.DefaultShortWait, child.Options().ShortWait)
	assert.Equal(t, 0, parent.Len(), "nested batch is not linked")
	assert.Equal(t, batch.DefaultPoll, parent.Options().Poll)
}

func TestWorstCase_SumOfChildren(t *testing.T) {
	b := batch.New()
	b.Add(func() {}, 30*time.Millisecond).
		Add(func() {}).
		Wait(time.Second)

	inner := b.Nested().Add(func() {}, 5*time.Millisecond).Wait(50 * time.Millisecond)
	b.Add(inner, time.Hour)

	var sum time.Duration
	for _, s := range b.Steps() {
		sum += s.WorstCase()
	}
	assert.Equal(t, sum, b.WorstCase())
	assert.Equal(t, 30*time.Millisecond+step.DefaultDuration+time.Second+55*time.Millisecond, b.WorstCase())

	inner.Add(func() {}, 45*time.Millisecond)
	assert.Equal(t, sum+45*time.Millisecond, b.WorstCase(), "recomputed on demand")
}

func TestExecute_FailFast(t *testing.T) {
	var ran []string
	boom := errors.New("B failed")
	rep := &recorder{}

	b := fast()
	b.AddNamed("A", func() { ran = append(ran, "A") }).
		AddNamed("B", func() error { ran = append(ran, "B"); return boom }).
		AddNamed("C", func() { ran = append(ran, "C") })

	err := execute(t, b, nil, rep)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"A", "B"}, ran)

	require.Len(t, rep.events, 2)
	assert.True(t, rep.events[0].Success)
	assert.Equal(t, "A", rep.events[0].Step)
	assert.False(t, rep.events[1].Success)
	assert.Equal(t, "B failed", rep.events[1].Error)
}

func TestExecute_OrderAndAsync(t *testing.T) {
	var ran []int
	b := fast()
	b.AddSync(func(*core.Scope) error { ran = append(ran, 1); return nil }).
		AddAsync(func(s *core.Scope, done core.Done) {
			s.Loop.After(5*time.Millisecond, func() { ran = append(ran, 2); done(nil) })
		}).
		Add(func(done core.Done) { ran = append(ran, 3); done(nil) })

	require.NoError(t, execute(t, b, nil, nil))
	assert.Equal(t, []int{1, 2, 3}, ran)
}

func TestExecute_Empty(t *testing.T) {
	assert.NoError(t, execute(t, batch.New(), nil, nil))
}

func TestExecute_NestedErrorPropagates(t *testing.T) {
	inner := batch.New().Add(func() error { return core.Errorf("inner failure") })
	ranAfter := false
	b := batch.New().Add(inner).Add(func() { ranAfter = true })

	err := execute(t, b, nil, nil)
	assert.EqualError(t, err, "inner failure")
	assert.False(t, ranAfter)
}

func TestAdd_ConstructionErrors(t *testing.T) {
	b := batch.New()
	assert.ErrorIs(t, b.TryAdd(42), core.ErrConstruction)
	assert.ErrorIs(t, b.TryAdd(func(a, b int) {}), core.ErrConstruction)
	assert.ErrorIs(t, b.TryAdd(nil), core.ErrConstruction)
	assert.ErrorIs(t, b.TryAdd(func() {}, -time.Second), core.ErrConstruction)
	assert.ErrorIs(t, b.TryAdd(b), core.ErrConstruction)
	assert.Equal(t, 0, b.Len())

	assert.PanicsWithError(t, "step construction: unsupported step body string: want a function taking nothing or a single completion callback", func() {
		b.Add("not a function")
	})
}

func TestAdd_StepIgnoresDuration(t *testing.T) {
	leaf := step.MustLeaf("x", step.Sync(func(*core.Scope) error { return nil }), 40*time.Millisecond)
	b := batch.New().Add(leaf, time.Hour)
	assert.Equal(t, 40*time.Millisecond, b.WorstCase())
}

func startLoop() (*loop.Loop, func()) {
	l := loop.New()
	return l, l.Start(context.Background())
}

// twice is a misbehaving step that completes two times.
type twice struct{}

func (twice) Name() string             { return "twice" }
func (twice) WorstCase() time.Duration { return time.Millisecond }
func (twice) Execute(s *core.Scope, done core.Done) {
	s.Loop.Post(func() { done(nil) })
	s.Loop.Post(func() { done(nil) })
}

func TestExecute_IgnoresRepeatedChildCompletion(t *testing.T) {
	runs := 0
	rep := &recorder{}
	b := fast().Add(twice{}).AddNamed("after", func() { runs++ })

	require.NoError(t, execute(t, b, nil, rep))
	assert.Equal(t, 1, runs)
	require.Len(t, rep.events, 2)
	assert.Equal(t, []string{"twice", "after"}, []string{rep.events[0].Step, rep.events[1].Step})
}
