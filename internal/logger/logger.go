// Package logger provides leveled logging with per-component tags.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger provides leveled logging.
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

func output(level Level, label, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > level {
		return
	}
	msg := fmt.Sprintf(label+" "+format, args...)
	_ = defaultLogger.logger.Output(3, msg)
}

func Debug(format string, args ...interface{}) {
	output(DebugLevel, "[DEBUG]", format, args...)
}

func Info(format string, args ...interface{}) {
	output(InfoLevel, "[INFO]", format, args...)
}

func Warn(format string, args ...interface{}) {
	output(WarnLevel, "[WARN]", format, args...)
}

func Error(format string, args ...interface{}) {
	output(ErrorLevel, "[ERROR]", format, args...)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}

// Component is a tagged view of the default logger. Pipeline stages log
// through their own tag (SPAM, RACE, DEDUP, SCORE) so a single stream stays
// greppable.
type Component struct {
	tag string
}

// For returns a component logger with the given tag.
func For(tag string) Component {
	return Component{tag: strings.ToUpper(tag)}
}

func (c Component) Debug(format string, args ...interface{}) {
	output(DebugLevel, "[DEBUG] ["+c.tag+"]", format, args...)
}

func (c Component) Info(format string, args ...interface{}) {
	output(InfoLevel, "[INFO] ["+c.tag+"]", format, args...)
}

func (c Component) Warn(format string, args ...interface{}) {
	output(WarnLevel, "[WARN] ["+c.tag+"]", format, args...)
}

func (c Component) Error(format string, args ...interface{}) {
	output(ErrorLevel, "[ERROR] ["+c.tag+"]", format, args...)
}
