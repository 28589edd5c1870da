package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pothosware/grpothosgen/internal/log"
)

// Entry is one diagnostic captured by a Recorder.
type Entry struct {
	Kind log.Kind
	Msg  string
}

// Recorder is a log.Reporter that keeps every diagnostic in memory.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

var _ log.Reporter = (*Recorder)(nil)

func (r *Recorder) add(k log.Kind, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Kind: k, Msg: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Header(format string, args ...any)  { r.add(log.KindHeader, format, args...) }
func (r *Recorder) Notice(format string, args ...any)  { r.add(log.KindNotice, format, args...) }
func (r *Recorder) Warning(format string, args ...any) { r.add(log.KindWarning, format, args...) }
func (r *Recorder) Error(format string, args ...any)   { r.add(log.KindError, format, args...) }
func (r *Recorder) Blacklist(format string, args ...any) {
	r.add(log.KindBlacklist, format, args...)
}

// Of returns the messages of kind k in report order.
func (r *Recorder) Of(k log.Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.Entries {
		if e.Kind == k {
			out = append(out, e.Msg)
		}
	}
	return out
}

// Has reports whether a diagnostic of kind k contains substr.
func (r *Recorder) Has(k log.Kind, substr string) bool {
	for _, m := range r.Of(k) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// WriteTree creates files below root from a path -> content map.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}
