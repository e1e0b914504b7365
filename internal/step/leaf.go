package step

import (
	"time"

	"stepchain/internal/core"
)

// DefaultDuration is the worst case assumed for a leaf that declares none.
const DefaultDuration = 10 * time.Millisecond

// Leaf is a Step wrapping one adapted body and its declared worst case.
// It is immutable after construction.
type Leaf struct {
	name     string
	fn       Func
	duration time.Duration
}

var _ core.Step = (*Leaf)(nil)

// NewLeaf builds a leaf. A zero duration selects DefaultDuration.
func NewLeaf(name string, fn Func, d time.Duration) (*Leaf, error) {
	if !fn.Valid() {
		return nil, core.Constructionf("leaf %q has no body", name)
	}
	if d < 0 {
		return nil, core.Constructionf("leaf %q has negative duration %s", name, d)
	}
	if d == 0 {
		d = DefaultDuration
	}
	return &Leaf{name: name, fn: fn, duration: d}, nil
}

// MustLeaf is NewLeaf for bodies known to be valid.
func MustLeaf(name string, fn Func, d time.Duration) *Leaf {
	l, err := NewLeaf(name, fn, d)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Leaf) Name() string {
	return l.name
}

// Execute runs the body in scope and forwards its single error.
func (l *Leaf) Execute(scope *core.Scope, done core.Done) {
	l.fn.Run(scope, func(err error) { done(err) })
}

// WorstCase returns the declared duration. It is an estimate, not a
// measurement.
func (l *Leaf) WorstCase() time.Duration {
	return l.duration
}
