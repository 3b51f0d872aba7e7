// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the structured, level-based logger used across the
// dispatch and validation core. It is a thin wrapper around log/slog, styled
// after go-ethereum's log package: package-level Trace/Debug/Info/Warn/Error/Crit
// helpers taking alternating key-value pairs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level mirrors slog.Level with the Crit/Trace extensions go-ethereum adds.
type Level = slog.Level

const (
	LevelTrace Level = slog.Level(-8)
	LevelDebug       = slog.LevelDebug
	LevelInfo        = slog.LevelInfo
	LevelWarn        = slog.LevelWarn
	LevelError       = slog.LevelError
	LevelCrit  Level = slog.Level(12)
)

var root = &logger{inner: slog.New(NewTerminalHandler(os.Stderr, false))}

// Logger is the interface consumed by the protocol core. It is deliberately
// small so components can be unit tested with a no-op implementation.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	With(ctx ...any) Logger
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) write(level Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any) {
	l.write(LevelCrit, msg, ctx)
	os.Exit(1)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

// Root returns the root logger, for constructing child loggers via With.
func Root() Logger { return root }

// New returns a logger tagged with the given key-value context, same as
// Root().With(ctx...).
func New(ctx ...any) Logger { return root.With(ctx...) }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }

// SetDefault installs h as the root logger's handler, e.g. a JSON handler in
// production or a discard handler in tests.
func SetDefault(h slog.Handler) {
	root.inner = slog.New(h)
}

// NewTerminalHandler returns a slog.Handler that renders colored,
// human-readable log lines when w is an interactive terminal, falling back
// to plain text otherwise (mirrors go-ethereum's TerminalHandler).
func NewTerminalHandler(w io.Writer, forceColor bool) slog.Handler {
	useColor := forceColor
	if f, ok := w.(*os.File); ok && !forceColor {
		useColor = isatty.IsTerminal(f.Fd())
	}
	out := w
	if useColor {
		out = colorable.NewColorable(w.(*os.File))
	}
	return &terminalHandler{w: out, color: useColor}
}

type terminalHandler struct {
	w     io.Writer
	color bool
	attrs []slog.Attr
}

func (h *terminalHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	level := levelString(r.Level, h.color)
	line := fmt.Sprintf("%s[%s] %s", r.Time.Format(time.TimeOnly), level, r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *terminalHandler) WithGroup(string) slog.Handler { return h }

var levelColors = map[Level]*color.Color{
	LevelTrace: color.New(color.FgHiBlack),
	LevelDebug: color.New(color.FgBlue),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
	LevelCrit:  color.New(color.FgHiRed, color.Bold),
}

func levelString(lvl slog.Level, useColor bool) string {
	text := "????"
	switch Level(lvl) {
	case LevelTrace:
		text = "TRCE"
	case LevelDebug:
		text = "DBUG"
	case LevelInfo:
		text = "INFO"
	case LevelWarn:
		text = "WARN"
	case LevelError:
		text = "ERRO"
	case LevelCrit:
		text = "CRIT"
	default:
		return lvl.String()
	}
	if useColor {
		if c, ok := levelColors[Level(lvl)]; ok {
			return c.Sprint(text)
		}
	}
	return text
}
