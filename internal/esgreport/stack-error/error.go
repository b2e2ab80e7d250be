// Ошибка с трассой вызовов через слои хранилище -> сеансы -> HTTP.
// Каждый слой добавляет свою точку вызова и контекст, а верхний слой выводит все одной записью журнала.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context  map[string]any
	ErrStack []slog.Attr
	cause    error
}

// TrackErrorStack оборачивает ошибку или дополняет уже обернутую точкой вызова.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if errors.As(err, &te) {
		te.ErrStack = append(te.ErrStack, callerAttr(err))
		return te
	}

	te = &TrackerError{
		Context:  make(map[string]any),
		ErrStack: make([]slog.Attr, 0, 4),
		cause:    err,
	}
	te.ErrStack = append(te.ErrStack, callerAttr(err))
	return te
}

// AddContext добавляет значение, если ключ еще не задан нижним слоем.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.ErrStack = append(te.ErrStack, callerAttr(err))
	return te
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

// LogError пишет ошибку в журнал вместе с трассой, контекстом и, если есть, запросом.
func LogError(c echo.Context, err error) {
	if err == nil {
		return
	}

	var attrs []any
	var te *TrackerError
	if errors.As(err, &te) {
		attrs = te.attrs()
	} else {
		attrs = []any{slog.String("raw_error", err.Error())}
	}

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.With(attrs...).Error("stack error")
}

func (te *TrackerError) attrs() []any {
	keys := make([]string, 0, len(te.Context))
	for k := range te.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]any, 0, len(keys)+2)
	for _, k := range keys {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	trace := make([]any, 0, len(te.ErrStack))
	for _, a := range te.ErrStack {
		trace = append(trace, a)
	}
	res = append(res, slog.Group("stack", trace...))
	if te.cause != nil {
		res = append(res, slog.String("err", te.cause.Error()))
	}
	return res
}

func callerAttr(err error) slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.String("trace", "unknown")
	}
	_, file := filepath.Split(path)
	return slog.String(fmt.Sprintf("%s:%d", file, no), err.Error())
}
