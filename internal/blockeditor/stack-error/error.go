package stack_error

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
)

// TrackerError накапливает место возникновения ошибки и контекст по мере подъема по стеку вызовов.
type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if errors.As(err, &te) {
		te.ErrStack = append(te.ErrStack, callerAttr(err, 2))
		return te
	}

	newTe := newTrackError(err)
	newTe.ErrStack = append(newTe.ErrStack, callerAttr(err, 2))
	return newTe
}

// FromPanic превращает значение, полученное из recover, в ошибку с местом паники.
func FromPanic(r any) *TrackerError {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	}
	te := newTrackError(err)
	// 0 - callerAttr, 1 - FromPanic, 2 - deferred recover, 3 - runtime.gopanic, 4 - место паники
	te.ErrStack = append(te.ErrStack, callerAttr(err, 4))
	return te
}

func newTrackError(err error) *TrackerError {
	return &TrackerError{
		Context:  make(map[string]any),
		ErrStack: make([]slog.Attr, 0),
		cause:    err,
	}
}

func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, callerAttr(err, 2))
	return te
}

// LogError пишет ошибку в лог на уровне level вместе с накопленным контекстом и стеком.
// logger == nil означает slog.Default().
func LogError(logger *slog.Logger, level slog.Level, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	var trackerError *TrackerError
	var attrs []any

	if errors.As(err, &trackerError) {
		attrs = trackerError.getAttrs()
		for _, attr := range trackerError.ErrStack {
			attrs = append(attrs, attr)
		}
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	logger.With(attrs...).Log(context.Background(), level, msg)
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

func (te *TrackerError) getAttrs() []any {
	keys := make([]string, 0, len(te.Context))
	for k := range te.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	res := make([]any, 0, len(keys)+1)
	res = append(res, slog.String("err", te.Error()))
	for _, k := range keys {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	return res
}

func callerAttr(err error, skip int) slog.Attr {
	_, path, no, ok := runtime.Caller(skip)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String("trace", fmt.Sprintf("%s:%d %s", file, no, err.Error()))
}
