// Package script compiles YAML scenario definitions into batches. Each step
// names a registered batch extension; groups of steps become nested
// batches.
package script

import (
	"errors"
	"fmt"
	"os"

	"stepchain/internal/batch"
	"stepchain/internal/config"
	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/template"
)

// Scenario is a compiled, ready to run scenario.
type Scenario struct {
	Name  string
	Batch *batch.Batch
	Page  *dom.Page
	Vars  *core.MapVariables
}

// Load seeds variables, loads the page fixture and compiles the steps of
// cfg.
func Load(cfg *config.Config) (*Scenario, error) {
	sc := cfg.Scenario
	vars := core.NewVariables()
	if err := Seed(sc, vars); err != nil {
		return nil, fmt.Errorf("seeding variables: %w", err)
	}

	page := dom.NewPage()
	if sc.Page != "" {
		p, err := dom.LoadPage(sc.Page)
		if err != nil {
			return nil, fmt.Errorf("loading page: %w", err)
		}
		page = p
	}

	b, err := Compile(sc, cfg.Defaults, vars)
	if err != nil {
		return nil, fmt.Errorf("compiling scenario %q: %w", sc.Name, err)
	}
	return &Scenario{Name: sc.Name, Batch: b, Page: page, Vars: vars}, nil
}

// Seed stores the configured variables, then the values extracted from the
// data file. Variable values may reference the environment and built-in
// functions.
func Seed(sc config.ScenarioConfig, vars core.Variables) error {
	var errs []error
	for name, raw := range sc.Vars {
		val, err := template.Substitute(raw, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("var %q: %w", name, err))
			continue
		}
		vars.Set(name, val)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if sc.Data == nil {
		return nil
	}
	data, err := os.ReadFile(sc.Data.File)
	if err != nil {
		return fmt.Errorf("reading data file: %w", err)
	}
	return template.Extract(data, sc.Data.Extract, vars)
}

// Compile builds the root batch for sc over defaults. String arguments are
// expanded against vars before the extension is called. Arguments naming a
// variable that an earlier setVar step assigns are expanded when the step
// runs instead.
func Compile(sc config.ScenarioConfig, defaults batch.Options, vars core.Variables) (*batch.Batch, error) {
	root := batch.New(batch.WithOptions(defaults), batch.WithName(sc.Name))
	c := &compiler{vars: vars, runtime: map[string]bool{}}
	if err := c.compile(root, sc.Steps, "steps"); err != nil {
		return nil, err
	}
	return root, nil
}

// compiler carries the names assigned by setVar steps seen so far, in
// script order.
type compiler struct {
	vars    core.Variables
	runtime map[string]bool
}

func (c *compiler) compile(b *batch.Batch, steps []config.StepConfig, path string) error {
	var errs []error
	for i, s := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)

		target := b
		if len(s.Steps) > 0 || s.Name != "" {
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("group %d", i+1)
			}
			target = b.Nested(batch.WithOptions(s.Defaults), batch.WithName(name))
		}

		var err error
		if len(s.Steps) > 0 {
			err = c.compile(target, s.Steps, at+".steps")
		} else {
			err = c.call(target, s)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", at, err))
			continue
		}
		if target != b {
			b.Add(target)
		}
	}
	return errors.Join(errs...)
}

func (c *compiler) call(b *batch.Batch, s config.StepConfig) error {
	if s.Do == "" {
		return core.Constructionf("step has nothing to do")
	}
	args, err := template.SubstituteArgs(s.Args, pending{c.vars, c.runtime})
	if err != nil {
		return err
	}

	if c.refersToRuntime(s.Args) {
		d, err := newDeferred(b, s.Do, s.Args, args)
		if err != nil {
			return err
		}
		b.Add(d)
	} else if err := b.TryCall(s.Do, args...); err != nil {
		return err
	}

	if s.Do == "setVar" && len(args) > 0 {
		c.runtime[fmt.Sprint(args[0])] = true
	}
	return nil
}

func (c *compiler) refersToRuntime(args []any) bool {
	for _, arg := range args {
		text, ok := arg.(string)
		if !ok {
			continue
		}
		for _, name := range template.References(text) {
			if c.runtime[name] {
				return true
			}
		}
	}
	return false
}

// pending resolves names assigned at run time to their own placeholder so
// compile-time expansion leaves them in place.
type pending struct {
	core.Variables
	names map[string]bool
}

func (p pending) Get(key string) (any, bool) {
	if p.names[key] {
		return "${" + key + "}", true
	}
	if p.Variables == nil {
		return nil, false
	}
	return p.Variables.Get(key)
}
