package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// Logger writes structured audit-pipeline logs to the standard logger.
// It implements the orchestrator's logging port.
type Logger struct {
	level  LogLevel
	format LogFormat
	now    func() time.Time
}

// NewLogger creates a logger with the specified level and format.
func NewLogger(level LogLevel, format LogFormat) *Logger {
	return &Logger{level: level, format: format, now: time.Now}
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("warning", "[WARN]", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emit("info", "[INFO]", message, fields)
}

func (l *Logger) emit(level, prefix, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := map[string]interface{}{
			"level":     level,
			"message":   message,
			"timestamp": l.now().Format(time.RFC3339),
		}
		for key, value := range fields {
			entry[key] = value
		}
		encoded, err := json.Marshal(entry)
		if err != nil {
			log.Printf("%s %s (unencodable fields: %v)", prefix, message, err)
			return
		}
		log.Printf("%s", encoded)
		return
	}

	log.Printf("%s %s%s", prefix, message, formatFields(fields))
}

// formatFields renders fields as " key=value" pairs in stable order.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(fmt.Sprintf(" %s=%v", key, fields[key]))
	}
	return builder.String()
}
