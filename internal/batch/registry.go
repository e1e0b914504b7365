package batch

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"stepchain/internal/core"
)

// Generator builds a step for a named extension. It returns a core.Step or
// any body accepted by step.Adapt; the result is appended with Add.
type Generator func(b *Batch, args ...any) (any, error)

var registry = struct {
	sync.RWMutex
	gens map[string]Generator
}{gens: map[string]Generator{}}

func init() {
	MustExtend("wait", func(b *Batch, args ...any) (any, error) {
		d, err := durationArg(args, 0)
		if err != nil {
			return nil, err
		}
		return b.waitStep(d)
	})
	MustExtend("waitUntil", func(b *Batch, args ...any) (any, error) {
		if len(args) == 0 {
			return nil, core.Constructionf("waitUntil requires a condition")
		}
		test, err := conditionArg(args[0])
		if err != nil {
			return nil, err
		}
		o, err := waitOptsArgs(args, 1)
		if err != nil {
			return nil, err
		}
		if len(args) > 3 {
			o.Message = fmt.Sprint(args[3])
		}
		return b.waitUntilStep(test, o)
	})
	MustExtend("debug", func(b *Batch, args ...any) (any, error) {
		return b.debugStep(fmt.Sprint(args...))
	})
	MustExtend("waitForElement", func(b *Batch, args ...any) (any, error) {
		sel, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		o, err := waitOptsArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return b.waitForElementStep(sel, o)
	})
	MustExtend("click", func(b *Batch, args ...any) (any, error) {
		sel, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		return b.clickStep(sel)
	})
	MustExtend("setValue", func(b *Batch, args ...any) (any, error) {
		sel, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, core.Constructionf("setValue requires a value")
		}
		return b.setValueStep(sel, fmt.Sprint(args[1]))
	})
	MustExtend("waitAndClick", func(b *Batch, args ...any) (any, error) {
		sel, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		d, err := durationArg(args, 1)
		if err != nil {
			return nil, err
		}
		return b.waitAndClickStep(sel, d)
	})
}

// Extend registers gen under name for every batch. Names are unique for
// the life of the process; registering one twice fails.
func Extend(name string, gen Generator) error {
	if name == "" {
		return core.Constructionf("extension name is empty")
	}
	if gen == nil {
		return core.Constructionf("extension %q has no generator", name)
	}
	registry.Lock()
	defer registry.Unlock()
	if _, exists := registry.gens[name]; exists {
		return core.Constructionf("extension %q already registered", name)
	}
	registry.gens[name] = gen
	return nil
}

// MustExtend is Extend for package initialisation.
func MustExtend(name string, gen Generator) {
	if err := Extend(name, gen); err != nil {
		panic(err)
	}
}

// Lookup returns the generator registered under name.
func Lookup(name string) (Generator, bool) {
	registry.RLock()
	defer registry.RUnlock()
	gen, ok := registry.gens[name]
	return gen, ok
}

// Names lists the registered extensions in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.gens))
	for name := range registry.gens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call appends the step produced by the extension name. Failures panic
// with an error matching core.ErrConstruction.
func (b *Batch) Call(name string, args ...any) *Batch {
	if err := b.TryCall(name, args...); err != nil {
		panic(err)
	}
	return b
}

// TryCall is Call returning the construction error.
func (b *Batch) TryCall(name string, args ...any) error {
	gen, ok := Lookup(name)
	if !ok {
		return core.Constructionf("unknown extension %q", name)
	}
	item, err := gen(b, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if item == nil {
		return core.Constructionf("extension %q produced no step", name)
	}
	return b.tryAdd(name, item, nil)
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", core.Constructionf("missing argument %d", i+1)
	}
	s, ok := args[i].(string)
	if !ok || s == "" {
		return "", core.Constructionf("argument %d: want a non-empty string, got %T", i+1, args[i])
	}
	return s, nil
}

// durationArg reads an optional duration. Integers and floats are
// milliseconds; strings use time.ParseDuration.
func durationArg(args []any, i int) (time.Duration, error) {
	if i >= len(args) || args[i] == nil {
		return 0, nil
	}
	switch v := args[i].(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond, nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, core.Constructionf("argument %d: %v", i+1, err)
		}
		return d, nil
	default:
		return 0, core.Constructionf("argument %d: want a duration, got %T", i+1, v)
	}
}

func waitOptsArgs(args []any, from int) (WaitOpts, error) {
	timeout, err := durationArg(args, from)
	if err != nil {
		return WaitOpts{}, err
	}
	poll, err := durationArg(args, from+1)
	if err != nil {
		return WaitOpts{}, err
	}
	return WaitOpts{Timeout: timeout, Poll: poll}, nil
}

func conditionArg(v any) (Condition, error) {
	switch fn := v.(type) {
	case Condition:
		return fn, nil
	case func(*core.Scope) (bool, error):
		return fn, nil
	case func() (bool, error):
		if fn == nil {
			return nil, core.Constructionf("waitUntil: predicate is nil")
		}
		return func(*core.Scope) (bool, error) { return fn() }, nil
	case func() bool:
		return Predicate(fn), nil
	default:
		return nil, core.Constructionf("waitUntil: want a predicate, got %T", v)
	}
}
