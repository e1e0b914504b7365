package script

import (
	"fmt"

	"stepchain/internal/batch"
	"stepchain/internal/core"
	"stepchain/internal/dom"
	"stepchain/internal/step"
)

// valuer is implemented by documents that expose element values, such as
// dom.Page.
type valuer interface {
	Value(selector string) (string, bool)
}

func init() {
	batch.MustExtend("assertValue", func(b *batch.Batch, args ...any) (any, error) {
		sel, want, err := pair(args)
		if err != nil {
			return nil, err
		}
		return step.Sync(func(scope *core.Scope) error {
			v, ok := scope.Document.(valuer)
			if !ok {
				return core.Errorf("document cannot read element values")
			}
			got, found := v.Value(sel)
			if !found {
				return core.Errorf("element %q not found", sel)
			}
			return core.AssertEqual(want, got, fmt.Sprintf("value of %q", sel))
		}), nil
	})

	batch.MustExtend("assertVisible", func(b *batch.Batch, args ...any) (any, error) {
		if len(args) != 1 {
			return nil, core.Constructionf("assertVisible takes a selector")
		}
		sel := fmt.Sprint(args[0])
		return step.Sync(func(scope *core.Scope) error {
			visible := visibleIn(scope.Document, sel)
			return core.AssertEqual(true, visible, fmt.Sprintf("visibility of %q", sel))
		}), nil
	})

	batch.MustExtend("setVar", func(b *batch.Batch, args ...any) (any, error) {
		name, value, err := pair(args)
		if err != nil {
			return nil, err
		}
		return step.Sync(func(scope *core.Scope) error {
			scope.Vars.Set(name, value)
			return nil
		}), nil
	})
}

func visibleIn(doc dom.Document, sel string) bool {
	if doc == nil {
		return false
	}
	el, ok := doc.Locate(sel)
	return ok && doc.Visible(el)
}

func pair(args []any) (string, string, error) {
	if len(args) != 2 {
		return "", "", core.Constructionf("want 2 arguments, got %d", len(args))
	}
	return fmt.Sprint(args[0]), fmt.Sprint(args[1]), nil
}
