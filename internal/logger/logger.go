package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents the logging level
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	TRACE: "TRACE",
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Component represents the logging component
type Component string

const (
	ComponentApp        Component = "app"
	ComponentCLI        Component = "cli"
	ComponentFetcher    Component = "fetcher"
	ComponentExtractor  Component = "extractor"
	ComponentDownloader Component = "downloader"
	ComponentClient     Component = "client"
	ComponentStorage    Component = "storage"
	ComponentScript     Component = "script"
)

// Components lists every known component.
func Components() []Component {
	return []Component{
		ComponentApp,
		ComponentCLI,
		ComponentFetcher,
		ComponentExtractor,
		ComponentDownloader,
		ComponentClient,
		ComponentStorage,
		ComponentScript,
	}
}

// Format represents the log output format
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatColor
)

// Fields carries structured key/value pairs attached to an entry.
type Fields map[string]interface{}

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	Components map[Component]bool
	ShowCaller bool
	Timestamp  bool
}

// DefaultConfig returns default logger configuration. Diagnostics go to
// stderr so they never interleave with the progress output on stdout.
func DefaultConfig() *Config {
	components := make(map[Component]bool, len(Components()))
	for _, c := range Components() {
		components[c] = true
	}
	return &Config{
		Level:      WARN,
		Format:     FormatText,
		Output:     os.Stderr,
		Components: components,
	}
}

// Entry represents a single log entry
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Component Component `json:"component"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Caller    string    `json:"caller,omitempty"`
}

// Logger provides structured logging functionality
type Logger struct {
	config *Config
	mu     sync.Mutex
}

// New creates a new logger instance
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Components == nil {
		config.Components = make(map[Component]bool)
	}
	return &Logger{config: config}
}

// WithComponent creates a new logger instance for a specific component
func (l *Logger) WithComponent(component Component) *ComponentLogger {
	return &ComponentLogger{
		logger:    l,
		component: component,
	}
}

// Close releases the output when it is a log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.config.Output == os.Stdout || l.config.Output == os.Stderr {
		return nil
	}
	if c, ok := l.config.Output.(io.Closer); ok {
		l.config.Output = io.Discard
		return c.Close()
	}
	return nil
}

// Enabled reports whether an entry at level for component would be written.
func (l *Logger) Enabled(level Level, component Component) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.config.Level && l.config.Components[component]
}

// log writes a log entry
func (l *Logger) log(level Level, component Component, message string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.config.Level || !l.config.Components[component] {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if l.config.ShowCaller {
		// log <- ComponentLogger.log <- ComponentLogger.<Level> <- caller
		if _, file, line, ok := runtime.Caller(3); ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	l.writeEntry(entry)
}

// writeEntry writes the log entry to output
func (l *Logger) writeEntry(entry Entry) {
	var output string

	switch l.config.Format {
	case FormatJSON:
		output = l.formatJSON(entry)
	case FormatColor:
		output = l.formatColor(entry)
	default:
		output = l.formatText(entry)
	}

	fmt.Fprintln(l.config.Output, output)
}

// formatText formats entry as plain text
func (l *Logger) formatText(entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, entry.Timestamp.Format("2006-01-02 15:04:05"))
	}

	parts = append(parts, fmt.Sprintf("[%s]", entry.Level))
	parts = append(parts, fmt.Sprintf("[%s]", entry.Component))
	parts = append(parts, entry.Message)

	if entry.Caller != "" {
		parts = append(parts, fmt.Sprintf("(%s)", entry.Caller))
	}

	if len(entry.Fields) > 0 {
		var fieldParts []string
		for _, k := range sortedKeys(entry.Fields) {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, strings.Join(fieldParts, " "))
	}

	return strings.Join(parts, " ")
}

// formatJSON formats entry as JSON
func (l *Logger) formatJSON(entry Entry) string {
	data, _ := json.Marshal(entry)
	return string(data)
}

var (
	colorTimestamp = color.New(color.FgHiBlack)
	colorComponent = color.New(color.FgCyan)
	colorKey       = color.New(color.FgYellow)
	colorValue     = color.New(color.FgGreen)
)

// formatColor formats entry with colors
func (l *Logger) formatColor(entry Entry) string {
	var parts []string

	if l.config.Timestamp {
		parts = append(parts, colorTimestamp.Sprint(entry.Timestamp.Format("2006-01-02 15:04:05")))
	}

	parts = append(parts, levelColor(entry.Level).Sprintf("[%s]", entry.Level))
	parts = append(parts, colorComponent.Sprintf("[%s]", entry.Component))
	parts = append(parts, entry.Message)

	if entry.Caller != "" {
		parts = append(parts, colorTimestamp.Sprintf("(%s)", entry.Caller))
	}

	if len(entry.Fields) > 0 {
		var fieldParts []string
		for _, k := range sortedKeys(entry.Fields) {
			fieldParts = append(fieldParts, colorKey.Sprint(k)+"="+colorValue.Sprint(entry.Fields[k]))
		}
		parts = append(parts, strings.Join(fieldParts, " "))
	}

	return strings.Join(parts, " ")
}

// levelColor returns the color for a log level
func levelColor(level Level) *color.Color {
	switch level {
	case TRACE:
		return color.New(color.FgWhite)
	case DEBUG:
		return color.New(color.FgHiBlue)
	case INFO:
		return color.New(color.FgHiGreen)
	case WARN:
		return color.New(color.FgHiYellow)
	case ERROR:
		return color.New(color.FgHiRed)
	default:
		return color.New(color.Reset)
	}
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component Component
}

// Trace logs a trace message
func (cl *ComponentLogger) Trace(message string, fields ...Fields) {
	cl.log(TRACE, message, fields...)
}

// Debug logs a debug message
func (cl *ComponentLogger) Debug(message string, fields ...Fields) {
	cl.log(DEBUG, message, fields...)
}

// Info logs an info message
func (cl *ComponentLogger) Info(message string, fields ...Fields) {
	cl.log(INFO, message, fields...)
}

// Warn logs a warning message
func (cl *ComponentLogger) Warn(message string, fields ...Fields) {
	cl.log(WARN, message, fields...)
}

// Error logs an error message
func (cl *ComponentLogger) Error(message string, fields ...Fields) {
	cl.log(ERROR, message, fields...)
}

// log merges fields and forwards the entry
func (cl *ComponentLogger) log(level Level, message string, fields ...Fields) {
	var merged Fields
	switch len(fields) {
	case 0:
	case 1:
		merged = fields[0]
	default:
		merged = make(Fields)
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
	}
	cl.logger.log(level, cl.component, message, merged)
}

var (
	globalMu     sync.RWMutex
	globalLogger = New(DefaultConfig())
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// WithComponent returns a component logger from global logger
func WithComponent(component Component) *ComponentLogger {
	return GetGlobalLogger().WithComponent(component)
}
