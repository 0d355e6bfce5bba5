package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const filePrefix = "file:"

// AllComponents enables every component when listed in LogConfig.Components.
const AllComponents = "all"

// LogConfig is the serialisable logging configuration. Its env and file tags
// are read as part of the application configuration.
type LogConfig struct {
	Level      string   `json:"level" yaml:"level" toml:"level" env:"MEDIADL_LOG_LEVEL" env-default:"WARN" env-description:"TRACE, DEBUG, INFO, WARN or ERROR"`
	Format     string   `json:"format" yaml:"format" toml:"format" env:"MEDIADL_LOG_FORMAT" env-default:"text" env-description:"text, json or color"`
	Output     string   `json:"output" yaml:"output" toml:"output" env:"MEDIADL_LOG_OUTPUT" env-default:"stderr" env-description:"stdout, stderr, none or file:<path>"`
	Components []string `json:"components" yaml:"components" toml:"components" env:"MEDIADL_LOG_COMPONENTS" env-default:"all" env-description:"comma separated components or all"`
	ShowCaller bool     `json:"show_caller" yaml:"show_caller" toml:"show_caller" env:"MEDIADL_LOG_CALLER" env-description:"append file:line"`
	Timestamp  bool     `json:"timestamp" yaml:"timestamp" toml:"timestamp" env:"MEDIADL_LOG_TIMESTAMP" env-description:"prefix entries with a timestamp"`
}

// ToLoggerConfig converts LogConfig to logger.Config
func (c *LogConfig) ToLoggerConfig() (*Config, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	format, err := parseFormat(c.Format)
	if err != nil {
		return nil, fmt.Errorf("parse format: %w", err)
	}

	output, err := parseOutput(c.Output)
	if err != nil {
		return nil, fmt.Errorf("parse output: %w", err)
	}

	return &Config{
		Level:      level,
		Format:     format,
		Output:     output,
		Components: parseComponents(c.Components),
		ShowCaller: c.ShowCaller,
		Timestamp:  c.Timestamp,
	}, nil
}

// ValidateConfig validates the configuration without opening outputs.
func (c *LogConfig) ValidateConfig() error {
	if _, err := parseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if _, err := parseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	out := strings.ToLower(strings.TrimSpace(c.Output))
	switch {
	case out == "stdout", out == "stderr", out == "null", out == "none":
	case isFileOutput(c.Output):
	default:
		return fmt.Errorf("invalid output: %q", c.Output)
	}
	return nil
}

// fileOutput returns the path of a "file:<path>" output. The prefix is
// matched case-insensitively.
func fileOutput(output string) (string, bool) {
	output = strings.TrimSpace(output)
	if len(output) <= len(filePrefix) || !strings.EqualFold(output[:len(filePrefix)], filePrefix) {
		return "", false
	}
	return output[len(filePrefix):], true
}

func isFileOutput(output string) bool {
	_, ok := fileOutput(output)
	return ok
}

// CreateLoggerFromConfig creates a logger from LogConfig. Call Close on the
// result to release a file output.
func CreateLoggerFromConfig(config *LogConfig) (*Logger, error) {
	loggerConfig, err := config.ToLoggerConfig()
	if err != nil {
		return nil, fmt.Errorf("convert config: %w", err)
	}
	return New(loggerConfig), nil
}

// parseLevel parses level string to Level enum
func parseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return WARN, fmt.Errorf("unknown level: %s", levelStr)
	}
}

// parseFormat parses format string to Format enum
func parseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "color", "colored":
		return FormatColor, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", formatStr)
	}
}

// parseOutput parses output string to io.Writer
func parseOutput(outputStr string) (io.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(outputStr)) {
	case "stderr", "":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	case "null", "none":
		return io.Discard, nil
	}
	if filePath, ok := fileOutput(outputStr); ok {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return file, nil
	}
	return nil, fmt.Errorf("unknown output: %s", outputStr)
}

// parseComponents turns a component list into an enable map. An empty list
// or the "all" keyword enables every known component.
func parseComponents(names []string) map[Component]bool {
	components := make(map[Component]bool)
	all := len(names) == 0
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
		case AllComponents:
			all = true
		default:
			components[Component(name)] = true
		}
	}
	if all {
		for _, c := range Components() {
			components[c] = true
		}
	}
	return components
}
