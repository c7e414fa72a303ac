// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package evlogiface backs evqueue.Logger with
// github.com/joeycumines/logiface, so a Queue's structured logging can
// be routed through any logiface-compatible sink (zerolog, logrus,
// slog, stumpy) instead of the package's own DefaultLogger.
package evlogiface

import (
	"github.com/joeycumines/logiface"

	"github.com/evqueue/evqueue"
)

// Adapter implements evqueue.Logger over a *logiface.Logger[E].
type Adapter[E logiface.Event] struct {
	logger *logiface.Logger[E]
}

// New wraps logger as an evqueue.Logger.
func New[E logiface.Event](logger *logiface.Logger[E]) *Adapter[E] {
	return &Adapter[E]{logger: logger}
}

// IsEnabled reports whether level would actually be logged, so callers
// can skip building an expensive LogEntry.Context map when it would be
// discarded.
func (a *Adapter[E]) IsEnabled(level evqueue.LogLevel) bool {
	return toLogifaceLevel(level) <= a.logger.Level()
}

// Log translates one evqueue.LogEntry into a logiface builder chain and
// emits it.
func (a *Adapter[E]) Log(entry evqueue.LogEntry) {
	b := a.build(entry.Level)
	if !b.Enabled() {
		b.Release()
		return
	}

	if entry.QueueID != 0 {
		b = b.Int64("queue", entry.QueueID)
	}
	if entry.HandleID != 0 {
		b = b.Int64("handle", entry.HandleID)
	}
	if entry.Category != "" {
		b = b.Str("category", entry.Category)
	}
	for k, v := range entry.Context {
		b = b.Any(k, v)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}

	b.Log(entry.Message)
}

func (a *Adapter[E]) build(level evqueue.LogLevel) *logiface.Builder[E] {
	switch level {
	case evqueue.LevelDebug:
		return a.logger.Debug()
	case evqueue.LevelInfo:
		return a.logger.Info()
	case evqueue.LevelWarn:
		return a.logger.Warning()
	case evqueue.LevelError:
		return a.logger.Err()
	default:
		return a.logger.Notice()
	}
}

func toLogifaceLevel(level evqueue.LogLevel) logiface.Level {
	switch level {
	case evqueue.LevelDebug:
		return logiface.LevelDebug
	case evqueue.LevelInfo:
		return logiface.LevelInformational
	case evqueue.LevelWarn:
		return logiface.LevelWarning
	case evqueue.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelNotice
	}
}
