// Leveled logging for the brick layers engine.
//
// Supports log levels, structured key/value fields, text and JSON output,
// ANSI colors on terminals, and per-component prefixes. The real-time
// transform path must stay quiet at INFO level; per-move detail belongs at
// DEBUG.

package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel parses a level name. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

// Format selects the output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Fields holds structured key/value pairs attached to a message.
type Fields map[string]any

var levelColors = map[Level]string{
	DEBUG: "\x1b[36m",
	INFO:  "\x1b[32m",
	WARN:  "\x1b[33m",
	ERROR: "\x1b[31m",
}

const colorReset = "\x1b[0m"

// Logger writes leveled, optionally structured log messages.
type Logger struct {
	mu       sync.Mutex
	prefix   string
	writer   io.Writer
	level    Level
	format   Format
	colorize bool
}

// New returns a logger writing to stderr at INFO level.
func New(prefix string) *Logger {
	l := &Logger{
		prefix:   prefix,
		writer:   os.Stderr,
		level:    INFO,
		format:   FormatText,
		colorize: os.Getenv("NO_COLOR") == "",
	}
	configureFromEnv(l)
	return l
}

// WithPrefix returns a logger sharing this logger's settings under a new prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:   prefix,
		writer:   l.writer,
		level:    l.level,
		format:   l.format,
		colorize: l.colorize,
	}
}

// SetLevel sets the minimum level emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetWriter redirects output, primarily for tests.
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
}

// SetFormat selects text or JSON output.
func (l *Logger) SetFormat(f Format) {
	l.mu.Lock()
	l.format = f
	l.mu.Unlock()
}

// SetColorize enables or disables ANSI colors in text output.
func (l *Logger) SetColorize(on bool) {
	l.mu.Lock()
	l.colorize = on
	l.mu.Unlock()
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(DEBUG, msg, args, nil) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(INFO, msg, args, nil) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(WARN, msg, args, nil) }
func (l *Logger) Error(msg string, args ...any) { l.emit(ERROR, msg, args, nil) }

// WithFields returns an Entry carrying structured fields.
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// WithField returns an Entry carrying one structured field.
func (l *Logger) WithField(key string, value any) *Entry {
	return &Entry{logger: l, fields: Fields{key: value}}
}

// WithError returns an Entry with the error field set.
func (l *Logger) WithError(err error) *Entry {
	return l.WithField("error", err.Error())
}

// Entry is a pending log message with attached fields.
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField adds a field to the entry.
func (e *Entry) WithField(key string, value any) *Entry {
	merged := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		merged[k] = v
	}
	merged[key] = value
	return &Entry{logger: e.logger, fields: merged}
}

func (e *Entry) Debug(msg string, args ...any) { e.logger.emit(DEBUG, msg, args, e.fields) }
func (e *Entry) Info(msg string, args ...any)  { e.logger.emit(INFO, msg, args, e.fields) }
func (e *Entry) Warn(msg string, args ...any)  { e.logger.emit(WARN, msg, args, e.fields) }
func (e *Entry) Error(msg string, args ...any) { e.logger.emit(ERROR, msg, args, e.fields) }

func (l *Logger) emit(level Level, msg string, args []any, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	var out string
	if l.format == FormatJSON {
		out = l.renderJSON(level, msg, fields)
	} else {
		out = l.renderText(level, msg, fields)
	}
	fmt.Fprint(l.writer, out)
}

func (l *Logger) renderText(level Level, msg string, fields Fields) string {
	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")
	if l.colorize {
		sb.WriteString(levelColors[level])
	}
	sb.WriteString(l.prefix)
	if l.colorize {
		sb.WriteString(colorReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, fields[k])
		}
		sb.WriteString("}")
	}
	sb.WriteString("\n")
	return sb.String()
}

type jsonEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func (l *Logger) renderJSON(level Level, msg string, fields Fields) string {
	entry := jsonEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Logger:    l.prefix,
		Message:   msg,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"error":"marshal log entry: %v"}`+"\n", err)
	}
	return string(data) + "\n"
}

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// GetLogger returns a logger derived from the process default.
func GetLogger(prefix string) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("bricklayers")
	}
	if prefix == "" {
		return defaultLogger
	}
	return defaultLogger.WithPrefix(prefix)
}

// SetDefaultLogger replaces the process default logger.
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// configureFromEnv applies environment configuration:
//
//	BRICK_LOG_LEVEL:  DEBUG, INFO, WARN, ERROR
//	BRICK_LOG_FORMAT: text, json
//	NO_COLOR:         any non-empty value disables colors
func configureFromEnv(l *Logger) {
	if v := os.Getenv("BRICK_LOG_LEVEL"); v != "" {
		l.level = ParseLevel(v)
	}
	switch strings.ToLower(os.Getenv("BRICK_LOG_FORMAT")) {
	case "json":
		l.format = FormatJSON
	case "text":
		l.format = FormatText
	}
	if os.Getenv("NO_COLOR") != "" {
		l.colorize = false
	}
}
