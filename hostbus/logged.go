package hostbus

import (
	"context"
	"log/slog"
)

// NewLoggedPlatform wraps inner and logs every platform call and its result
// at the given level. Failures are logged at Error. The interrupt path is
// not logged; BindNotify is forwarded untouched when inner supports it.
func NewLoggedPlatform(inner Platform, logger *slog.Logger, level slog.Level) Platform {
	return &loggedPlatform{inner: inner, logger: logger, level: level}
}

type loggedPlatform struct {
	inner  Platform
	logger *slog.Logger
	level  slog.Level
}

func (l *loggedPlatform) BusInit() error {
	return l.call(OpBusInit, l.inner.BusInit)
}

func (l *loggedPlatform) BusDeinit() error {
	return l.call(OpBusDeinit, l.inner.BusDeinit)
}

func (l *loggedPlatform) EnableInterrupt() error {
	return l.call(OpEnableInterrupt, l.inner.EnableInterrupt)
}

func (l *loggedPlatform) DisableInterrupt() error {
	return l.call(OpDisableInterrupt, l.inner.DisableInterrupt)
}

func (l *loggedPlatform) BufferFreed(dir Direction) {
	l.logger.Log(context.Background(), l.level, "platform buffer_freed", "dir", dir.String())
	l.inner.BufferFreed(dir)
}

func (l *loggedPlatform) BindNotify(notify func() bool) {
	if src, ok := l.inner.(InterruptSource); ok {
		src.BindNotify(notify)
	}
}

func (l *loggedPlatform) call(op string, fn func() error) error {
	l.logger.Log(context.Background(), l.level, "platform "+op)
	err := fn()
	if err != nil {
		l.logger.Log(context.Background(), slog.LevelError, "platform "+op+" error", "error", err)
	}
	return err
}
