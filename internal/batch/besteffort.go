package batch

import (
	"context"

	"stepchain/internal/core"
	"stepchain/internal/log"
)

// BestEffort runs fn and discards its error or panic. Use it only for
// operations whose failure must never fail the step, such as simulated
// input events and focus changes. Discarded failures are logged at debug
// level.
func BestEffort(ctx context.Context, what string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = core.PanicError(r)
			}
		}()
		return fn()
	}()
	if err != nil {
		log.Debug(ctx, "best-effort operation failed", "op", what, log.Err(err))
	}
}
