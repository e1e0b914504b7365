package batch

import "time"

// Default option values.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultShortWait = 100 * time.Millisecond
	DefaultPoll      = 200 * time.Millisecond
)

// Options is the resolved configuration of a batch. It is a value type;
// batches copy it on creation and never share it.
type Options struct {
	// Timeout bounds explicit waits and WaitUntil when none is given.
	Timeout time.Duration `yaml:"timeout"`
	// ShortWait is the pause inserted after simulated input.
	ShortWait time.Duration `yaml:"shortWait"`
	// Poll is the WaitUntil polling interval when none is given.
	Poll time.Duration `yaml:"poll"`
}

// DefaultOptions returns the built-in option values.
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		ShortWait: DefaultShortWait,
		Poll:      DefaultPoll,
	}
}

// Merge returns o with every non-zero field of override applied.
func (o Options) Merge(override Options) Options {
	if override.Timeout > 0 {
		o.Timeout = override.Timeout
	}
	if override.ShortWait > 0 {
		o.ShortWait = override.ShortWait
	}
	if override.Poll > 0 {
		o.Poll = override.Poll
	}
	return o
}

// Option configures a Batch at construction.
type Option func(*Batch)

// WithTimeout sets the default wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Batch) { b.opts = b.opts.Merge(Options{Timeout: d}) }
}

// WithShortWait sets the pause inserted after simulated input.
func WithShortWait(d time.Duration) Option {
	return func(b *Batch) { b.opts = b.opts.Merge(Options{ShortWait: d}) }
}

// WithPoll sets the default polling interval.
func WithPoll(d time.Duration) Option {
	return func(b *Batch) { b.opts = b.opts.Merge(Options{Poll: d}) }
}

// WithOptions merges every non-zero field of o.
func WithOptions(o Options) Option {
	return func(b *Batch) { b.opts = b.opts.Merge(o) }
}

// WithName sets the name used in logs and reports.
func WithName(name string) Option {
	return func(b *Batch) { b.name = name }
}
