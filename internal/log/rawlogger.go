package log

import (
	"io"
	"strings"
	"sync"
)

// RawLogger receives diagnostic lines verbatim for the persisted run log.
type RawLogger interface {
	Log(tag, line string)
}

// rawLogger implements RawLogger with thread-safe writes.
type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log writes one line per message line, prefixed with "<tag>: " when tag is
// set. Headers are logged without a tag.
func (r *rawLogger) Log(tag, line string) {
	if r.w == nil {
		return
	}
	var b strings.Builder
	for _, l := range strings.Split(line, "\n") {
		if tag != "" {
			b.WriteString(tag)
			b.WriteString(": ")
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}

	r.mu.Lock()
	_, _ = io.WriteString(r.w, b.String())
	r.mu.Unlock()
}

type multiRaw []RawLogger

// MultiRaw returns a RawLogger writing every line to each of ls. Nil
// entries are skipped.
func MultiRaw(ls ...RawLogger) RawLogger {
	var out multiRaw
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multiRaw) Log(tag, line string) {
	for _, l := range m {
		l.Log(tag, line)
	}
}
