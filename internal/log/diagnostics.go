package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Reporter receives categorized generation diagnostics. None of them abort
// the run.
type Reporter interface {
	Header(format string, args ...any)
	Notice(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Blacklist(format string, args ...any)
}

// Kind categorizes a diagnostic.
type Kind int

const (
	KindHeader Kind = iota
	KindNotice
	KindWarning
	KindError
	KindBlacklist
)

func (k Kind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindNotice:
		return "notice"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	case KindBlacklist:
		return "blacklist"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// tag is the prefix used in the persisted log.
func (k Kind) tag() string {
	switch k {
	case KindNotice:
		return "I"
	case KindWarning:
		return "W"
	case KindError:
		return "E"
	case KindBlacklist:
		return "B"
	}
	return ""
}

// ColorMode selects when diagnostics are colourised.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Diagnostics writes colourised diagnostics to a console writer, mirrors
// them to slog and to a RawLogger, and counts them per kind.
type Diagnostics struct {
	out    io.Writer
	logger *slog.Logger
	raw    RawLogger
	colors map[Kind]*color.Color

	mu     sync.Mutex
	counts map[Kind]int
}

// NewDiagnostics creates a diagnostic stream. logger and raw may be nil.
func NewDiagnostics(out io.Writer, mode ColorMode, logger *slog.Logger, raw RawLogger) *Diagnostics {
	if raw == nil {
		raw = NewRaw(nil)
	}
	d := &Diagnostics{
		out:    out,
		logger: logger,
		raw:    raw,
		counts: map[Kind]int{},
		colors: map[Kind]*color.Color{
			KindHeader:    color.New(color.FgHiMagenta),
			KindNotice:    color.New(color.FgHiGreen),
			KindWarning:   color.New(color.FgHiYellow),
			KindError:     color.New(color.FgHiRed),
			KindBlacklist: color.New(color.FgHiBlue),
		},
	}
	enable := useColor(out, mode)
	for _, c := range d.colors {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return d
}

func useColor(out io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return enableVirtualTerminal(f)
}

func (d *Diagnostics) Header(format string, args ...any) {
	d.emit(KindHeader, format, args...)
}

func (d *Diagnostics) Notice(format string, args ...any) {
	d.emit(KindNotice, format, args...)
}

func (d *Diagnostics) Warning(format string, args ...any) {
	d.emit(KindWarning, format, args...)
}

func (d *Diagnostics) Error(format string, args ...any) {
	d.emit(KindError, format, args...)
}

func (d *Diagnostics) Blacklist(format string, args ...any) {
	d.emit(KindBlacklist, format, args...)
}

// Count returns how many diagnostics of kind k were reported.
func (d *Diagnostics) Count(k Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[k]
}

func (d *Diagnostics) emit(k Kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	d.mu.Lock()
	d.counts[k]++
	if d.out != nil {
		_, _ = d.colors[k].Fprintln(d.out, msg)
	}
	d.mu.Unlock()

	d.raw.Log(k.tag(), msg)
	if d.logger != nil {
		d.logger.Log(context.Background(), LevelTrace, msg, "diagnostic", k.String())
	}
}
