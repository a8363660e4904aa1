// Package rlog is an analysis-scoped async logger, adapted from the
// teacher's request logger down to what chatparser.Fingerprint and
// astmapper.Mapper need: one line per analyzer phase, plus leveled
// calls for anything noteworthy in between. Development mode prints
// colorized phase banners to stderr; production mode writes plain
// leveled lines, rotated through config.LogOutput when a log path is
// configured.
package rlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tmplparser/autoparser/config"
)

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorBlue   = "\033[1;34m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// Level is a log entry's severity.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

type entry struct {
	level   Level
	message string
	phase   string
	elapsed time.Duration
}

// Logger is a single fingerprinting/parsing run's async logger. Entries
// are buffered on a channel and drained by one consumer goroutine so
// logging from analyzer probes never blocks the analysis itself.
type Logger struct {
	engine    string
	shortID   string
	startTime time.Time

	ch     chan entry
	done   chan struct{}
	once   sync.Once
	closed bool
	noop   bool
	mu     sync.RWMutex
}

var noopLogger = &Logger{noop: true}

// Noop returns a logger that discards everything, safe to use as a
// zero-cost default when no logging is wanted.
func Noop() *Logger { return noopLogger }

// New starts a logger for one analysis run against the named engine
// (e.g. the template's declared model family, or "anonymous" if
// unknown).
func New(engine string) *Logger {
	l := &Logger{
		engine:    engine,
		shortID:   shortID(engine),
		startTime: time.Now(),
		ch:        make(chan entry, 100),
		done:      make(chan struct{}),
	}
	go l.consume()
	return l
}

// Close drains any buffered entries and stops the consumer goroutine.
func (l *Logger) Close() {
	if l.noop {
		return
	}
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.ch)
		<-l.done
	})
}

func (l *Logger) consume() {
	defer close(l.done)
	for e := range l.ch {
		l.process(e)
	}
}

func (l *Logger) process(e entry) {
	if config.IsDevelopment() {
		l.printDev(e)
		return
	}
	l.printProd(e)
}

func (l *Logger) printDev(e entry) {
	switch e.level {
	case LevelTrace:
		fmt.Fprintf(os.Stderr, "%s  -> %s%s\n", colorGray, e.message, colorReset)
	case LevelDebug:
		fmt.Fprintf(os.Stderr, "%s  . %s%s\n", colorGray, e.message, colorReset)
	case LevelInfo:
		fmt.Fprintf(os.Stderr, "%s  i %s%s\n", colorCyan, e.message, colorReset)
	case LevelWarn:
		fmt.Fprintf(os.Stderr, "%s  ! %s%s\n", colorYellow, e.message, colorReset)
	case LevelError:
		fmt.Fprintf(os.Stderr, "%s  x %s%s\n", colorRed, e.message, colorReset)
	}
}

func (l *Logger) printProd(e entry) {
	w := destWriter(config.LogOutput)
	prefix := fmt.Sprintf("[%s] ", l.shortID)
	switch e.level {
	case LevelTrace, LevelDebug:
		// Skipped below Info in production, matching the teacher's
		// log-level split between dev and prod verbosity.
	case LevelInfo:
		fmt.Fprintf(w, "%sINFO %s\n", prefix, e.message)
	case LevelWarn:
		fmt.Fprintf(w, "%sWARN %s\n", prefix, e.message)
	case LevelError:
		fmt.Fprintf(w, "%sERROR %s\n", prefix, e.message)
	}
}

func destWriter(w interface{ Write([]byte) (int, error) }) interface{ Write([]byte) (int, error) } {
	if w == nil {
		return os.Stderr
	}
	return w
}

func (l *Logger) send(e entry) {
	if l.noop {
		return
	}
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return
	}
	select {
	case l.ch <- e:
	default:
	}
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.send(entry{level: LevelTrace, message: fmt.Sprintf(format, args...)})
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.send(entry{level: LevelDebug, message: fmt.Sprintf(format, args...)})
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.send(entry{level: LevelInfo, message: fmt.Sprintf(format, args...)})
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.send(entry{level: LevelWarn, message: fmt.Sprintf(format, args...)})
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.send(entry{level: LevelError, message: fmt.Sprintf(format, args...)})
}

// Phase logs entry into one analyzer stage (e.g. "R1 reasoning-open",
// "E3 non-json-extraction").
func (l *Logger) Phase(name string) {
	if l.noop {
		return
	}
	elapsed := time.Since(l.startTime).Round(time.Millisecond)
	if config.IsDevelopment() {
		fmt.Fprintf(os.Stderr, "%s  > %s%s %s[+%v]%s\n", colorBlue, name, colorReset, colorGray, elapsed, colorReset)
		return
	}
	l.Trace("phase %s (+%v)", name, elapsed)
}

// PhaseComplete logs a stage finishing with a recovered-field summary
// (e.g. the marker text a probe recovered, or "" if it found nothing).
func (l *Logger) PhaseComplete(name, summary string) {
	if l.noop {
		return
	}
	if config.IsDevelopment() {
		if summary != "" {
			fmt.Fprintf(os.Stderr, "%s  ok %s: %s%s\n", colorGreen, name, summary, colorReset)
		} else {
			fmt.Fprintf(os.Stderr, "%s  ok %s%s\n", colorGreen, name, colorReset)
		}
		return
	}
	l.Trace("phase %s complete: %s", name, summary)
}

// PhaseSkip logs a stage that produced nothing (format didn't apply).
func (l *Logger) PhaseSkip(name, reason string) {
	if l.noop {
		return
	}
	if config.IsDevelopment() {
		fmt.Fprintf(os.Stderr, "%s  -- %s (%s)%s\n", colorGray, name, reason, colorReset)
		return
	}
	l.Trace("phase %s skipped: %s", name, reason)
}

// Start logs the beginning of a fingerprinting run.
func (l *Logger) Start() {
	if l.noop {
		return
	}
	if config.IsDevelopment() {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "%s%s%s\n", colorCyan, strings.Repeat("-", 60), colorReset)
		fmt.Fprintf(os.Stderr, "%s  fingerprinting %s (%s)%s\n", colorCyan, l.engine, l.shortID, colorReset)
		return
	}
	l.Trace("fingerprint %s started: engine=%s", l.shortID, l.engine)
}

// End logs the run's outcome and total elapsed time.
func (l *Logger) End(success bool, err error) {
	if l.noop {
		return
	}
	elapsed := time.Since(l.startTime).Round(time.Millisecond)
	if config.IsDevelopment() {
		if success {
			fmt.Fprintf(os.Stderr, "%s  done %s [+%v]%s\n", colorGreen, l.shortID, elapsed, colorReset)
		} else {
			fmt.Fprintf(os.Stderr, "%s  failed %s [+%v]: %v%s\n", colorRed, l.shortID, elapsed, err, colorReset)
		}
		return
	}
	if success {
		l.Info("fingerprint %s done (+%v)", l.shortID, elapsed)
	} else {
		l.Error("fingerprint %s failed (+%v): %v", l.shortID, elapsed, err)
	}
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	if s == "" {
		return "anon"
	}
	return s
}
