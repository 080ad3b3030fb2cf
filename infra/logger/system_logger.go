package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nopgate/twocheckout/infra/opensearch"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogContext holds contextual information for logging
type LogContext struct {
	OrderID     int64
	OrderNumber string
	RequestID   string
	Fields      map[string]any
}

// SystemLogger handles structured logging to console and OpenSearch
type SystemLogger struct {
	openSearchLogger *opensearch.Logger
	enableConsole    bool
	enableOpenSearch bool
	minLevel         LogLevel
	service          string
	environment      string
}

// SystemLoggerConfig represents configuration for system logger
type SystemLoggerConfig struct {
	EnableConsole    bool
	EnableOpenSearch bool
	MinLevel         LogLevel
	Service          string
	Environment      string
}

// NewSystemLogger creates a new system logger
func NewSystemLogger(openSearchLogger *opensearch.Logger, config SystemLoggerConfig) *SystemLogger {
	return &SystemLogger{
		openSearchLogger: openSearchLogger,
		enableConsole:    config.EnableConsole,
		enableOpenSearch: config.EnableOpenSearch && openSearchLogger != nil,
		minLevel:         config.MinLevel,
		service:          config.Service,
		environment:      config.Environment,
	}
}

// Debug logs a debug message
func (sl *SystemLogger) Debug(message string, ctx ...LogContext) {
	sl.log(LevelDebug, message, nil, ctx...)
}

// Info logs an info message
func (sl *SystemLogger) Info(message string, ctx ...LogContext) {
	sl.log(LevelInfo, message, nil, ctx...)
}

// Warn logs a warning message
func (sl *SystemLogger) Warn(message string, ctx ...LogContext) {
	sl.log(LevelWarn, message, nil, ctx...)
}

// Error logs an error message
func (sl *SystemLogger) Error(message string, err error, ctx ...LogContext) {
	sl.log(LevelError, message, err, ctx...)
}

// log is the core logging function
func (sl *SystemLogger) log(level LogLevel, message string, err error, ctx ...LogContext) {
	if !sl.shouldLog(level) {
		return
	}

	logCtx := LogContext{}
	if len(ctx) > 0 {
		logCtx = ctx[0]
	}

	if sl.enableConsole {
		sl.logToConsole(level, message, err, logCtx)
	}

	if sl.enableOpenSearch {
		entry := opensearch.IPNLog{
			Timestamp:   time.Now().UTC(),
			RequestID:   logCtx.RequestID,
			Level:       string(level),
			OrderID:     logCtx.OrderID,
			OrderNumber: logCtx.OrderNumber,
			Message:     message,
		}
		if err != nil {
			entry.Error = err.Error()
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if logErr := sl.openSearchLogger.LogIPN(ctx, entry); logErr != nil {
				log.Printf("Failed to index log entry: %v", logErr)
			}
		}()
	}
}

// shouldLog checks if the log level should be logged
func (sl *SystemLogger) shouldLog(level LogLevel) bool {
	levelOrder := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}

	return levelOrder[level] >= levelOrder[sl.minLevel]
}

// logToConsole logs to console with colored output
func (sl *SystemLogger) logToConsole(level LogLevel, message string, err error, logCtx LogContext) {
	colors := map[LogLevel]string{
		LevelDebug: "\033[36m", // Cyan
		LevelInfo:  "\033[32m", // Green
		LevelWarn:  "\033[33m", // Yellow
		LevelError: "\033[31m", // Red
	}

	reset := "\033[0m"
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05")

	var contextParts []string
	if logCtx.OrderID != 0 {
		contextParts = append(contextParts, fmt.Sprintf("order=%d", logCtx.OrderID))
	}
	if logCtx.OrderNumber != "" {
		contextParts = append(contextParts, fmt.Sprintf("order_number=%s", logCtx.OrderNumber))
	}
	if logCtx.RequestID != "" && len(logCtx.RequestID) >= 8 {
		contextParts = append(contextParts, fmt.Sprintf("req_id=%s", logCtx.RequestID[:8]))
	}
	for key, value := range logCtx.Fields {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", key, value))
	}

	contextStr := ""
	if len(contextParts) > 0 {
		contextStr = " [" + strings.Join(contextParts, " ") + "]"
	}

	errStr := ""
	if err != nil {
		errStr = " error=" + err.Error()
	}

	log.Printf("%s%s [%s] %s%s%s%s",
		colors[level], timestamp, strings.ToUpper(string(level)), message, contextStr, errStr, reset)
}
