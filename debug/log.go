// Package debug is a process-wide trace log. It is off by default; the TUI
// owns the terminal, so traces go to a file or, for headless tools, to any
// writer.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	homedir "github.com/mitchellh/go-homedir"
)

var (
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	counters = make(map[string]int)
)

// DefaultPath is ~/.config/keyscope/debug.log
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "debug.log"
	}
	return filepath.Join(home, ".config", "keyscope", "debug.log")
}

// Enable starts logging to path, truncating it. An empty path means
// DefaultPath. Enabling twice keeps the first destination.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return fault.Wrap(err, fmsg.With("expand debug log path"), ftag.With(ftag.InvalidArgument))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create debug log dir"), ftag.With(ftag.Internal))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fault.Wrap(err,
			fmsg.WithDesc("open debug log", "Could not open debug log "+path),
			ftag.With(ftag.Internal))
	}
	out, closer = f, f
	write("debug", "=== keyscope trace started ===")
	return nil
}

// EnableWriter logs to w, which the caller keeps ownership of.
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil || w == nil {
		return
	}
	out, closer = w, nil
	write("debug", "=== keyscope trace started ===")
}

// Enabled reports whether Log writes anywhere
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Disable stops logging and forgets the LogEvery counters
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
	}
	out, closer = nil, nil
	counters = make(map[string]int)
}

// Log writes one line under category
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if out == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// LogEvery logs only every n-th call with the same category and format.
// Use it on the frame path.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	if out == nil {
		mu.Unlock()
		return
	}
	key := category + "\x00" + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n <= 1 || count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

// write needs mu held
func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if f, ok := out.(*os.File); ok {
		f.Sync() // flush immediately so we see logs even on crash
	}
}
