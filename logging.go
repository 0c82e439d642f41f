package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var logger = newSimpleLogger()

const (
	logLevelDebug logLevel = iota
	logLevelInfo
	logLevelWarn
	logLevelError
)

var levelNames = []string{
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
}

type logLevel int

type logEvent struct {
	at    time.Time
	level logLevel
	msg   string
	attrs []any
}

// simpleLogger formats key/value log lines on a background goroutine so the
// simulation loop never blocks on a slow terminal or disk.
type simpleLogger struct {
	level    atomic.Int32
	queue    chan logEvent
	done     chan struct{}
	writerMu sync.RWMutex
	console  io.Writer
	file     io.Writer
	wg       sync.WaitGroup
	stopOnce sync.Once
	closing  atomic.Bool
}

func newSimpleLogger() *simpleLogger {
	l := &simpleLogger{
		queue:   make(chan logEvent, 4096),
		done:    make(chan struct{}),
		console: os.Stdout,
		file:    io.Discard,
	}
	l.level.Store(int32(logLevelInfo))
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *simpleLogger) run() {
	defer l.wg.Done()
	for {
		select {
		case evt := <-l.queue:
			l.writeEntry(evt)
		case <-l.done:
			for {
				select {
				case evt := <-l.queue:
					l.writeEntry(evt)
				default:
					return
				}
			}
		}
	}
}

func (l *simpleLogger) log(level logLevel, msg string, attrs ...any) {
	if int32(level) < l.level.Load() || l.closing.Load() {
		return
	}
	evt := logEvent{at: time.Now(), level: level, msg: msg, attrs: append([]any(nil), attrs...)}
	select {
	case l.queue <- evt:
	case <-l.done:
	}
}

func (l *simpleLogger) Debug(msg string, attrs ...any) { l.log(logLevelDebug, msg, attrs...) }
func (l *simpleLogger) Info(msg string, attrs ...any)  { l.log(logLevelInfo, msg, attrs...) }
func (l *simpleLogger) Warn(msg string, attrs ...any)  { l.log(logLevelWarn, msg, attrs...) }
func (l *simpleLogger) Error(msg string, attrs ...any) { l.log(logLevelError, msg, attrs...) }

func (l *simpleLogger) setLevel(level logLevel) {
	l.level.Store(int32(level))
}

func (l *simpleLogger) configureWriters(console, file io.Writer) {
	if console == nil {
		console = io.Discard
	}
	if file == nil {
		file = io.Discard
	}
	l.writerMu.Lock()
	old := l.file
	l.console = console
	l.file = file
	l.writerMu.Unlock()
	if old != file {
		closeWriter(old)
	}
}

// Stop drains queued entries and closes the file writer.
func (l *simpleLogger) Stop() {
	l.stopOnce.Do(func() {
		l.closing.Store(true)
		close(l.done)
		l.wg.Wait()
		l.writerMu.Lock()
		closeWriter(l.file)
		l.file = io.Discard
		l.writerMu.Unlock()
	})
}

func closeWriter(w io.Writer) {
	if closer, ok := w.(io.Closer); ok {
		_ = closer.Close()
	}
}

func (l *simpleLogger) writeEntry(evt logEvent) {
	levelName := "UNKNOWN"
	if int(evt.level) >= 0 && int(evt.level) < len(levelNames) {
		levelName = levelNames[evt.level]
	}
	var entry strings.Builder
	entry.WriteString(evt.at.UTC().Format(time.RFC3339Nano))
	entry.WriteString(" [")
	entry.WriteString(levelName)
	entry.WriteString("] ")
	entry.WriteString(evt.msg)
	if attrs := formatAttrs(evt.attrs); attrs != "" {
		entry.WriteByte(' ')
		entry.WriteString(attrs)
	}
	entry.WriteByte('\n')
	line := []byte(entry.String())

	l.writerMu.RLock()
	console, file := l.console, l.file
	l.writerMu.RUnlock()
	_, _ = console.Write(line)
	_, _ = file.Write(line)
}

func formatAttrs(attrs []any) string {
	if len(attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(attrs); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		key := fmt.Sprint(attrs[i])
		if i+1 < len(attrs) {
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(fmt.Sprint(attrs[i+1]))
			i++
		} else {
			b.WriteString(key)
		}
	}
	return b.String()
}

// appendFileWriter reopens its file if it disappears (e.g. logrotate moved
// it away) so long runs keep logging.
type appendFileWriter struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

func newAppendFileWriter(path string) io.Writer {
	if strings.TrimSpace(path) == "" {
		return io.Discard
	}
	return &appendFileWriter{path: path}
}

func (w *appendFileWriter) ensureFile() error {
	if _, err := os.Stat(w.path); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if w.f != nil {
			_ = w.f.Close()
			w.f = nil
		}
	}
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.f = f
	}
	return nil
}

func (w *appendFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureFile(); err != nil {
		return 0, err
	}
	return w.f.Write(p)
}

func (w *appendFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func configureLogging(cfg Config, stdout bool) {
	if cfg.LogDebug {
		logger.setLevel(logLevelDebug)
	} else {
		logger.setLevel(logLevelInfo)
	}
	var console io.Writer = io.Discard
	if stdout {
		console = os.Stdout
	}
	logger.configureWriters(console, newAppendFileWriter(cfg.LogFile))
}

const (
	exitFailure = 1
	exitUsage   = 2
)
