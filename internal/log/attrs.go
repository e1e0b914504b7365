package log

import (
	"log/slog"
	"time"
)

func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

func Step(name string) slog.Attr {
	return slog.String("step", name)
}

func Scenario(name string) slog.Attr {
	return slog.String("scenario", name)
}

func Elapsed(d time.Duration) slog.Attr {
	return slog.Duration("elapsed", d)
}

func Err(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
