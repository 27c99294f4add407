// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package logger is the process-wide leveled logger with colored prefixes
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	OffLevel
)

var levelNames = []string{"debug", "info", "warn", "error", "off"}

func (l Level) String() string {
	if l < DebugLevel || l > OffLevel {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel accepts debug, info, warn (warning), error and off
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "off", "none":
		return OffLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q (use debug, info, warn, error or off)", s)
}

var (
	defaultLogger = &Logger{
		logger: log.New(os.Stderr, "", log.LstdFlags),
		level:  InfoLevel,
	}

	debugPrintf = color.New(color.FgCyan).SprintfFunc()
	infoPrintf  = color.New(color.FgGreen).SprintfFunc()
	warnPrintf  = color.New(color.FgYellow).SprintfFunc()
	errorPrintf = color.New(color.FgRed).SprintfFunc()
)

type Logger struct {
	logger *log.Logger
	level  Level
	mu     sync.Mutex
}

func SetLevel(level Level) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
}

func GetLevel() Level {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.level
}

// SetOutput redirects logs. Colors are disabled unless w is stdout or stderr.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.logger = log.New(w, "", log.LstdFlags)

	if f, ok := w.(*os.File); !ok || (f != os.Stdout && f != os.Stderr) {
		color.NoColor = true
	}
}

func logAt(level Level, printf func(string, ...interface{}) string, tag, format string, v ...interface{}) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	if defaultLogger.level > level {
		return
	}
	defaultLogger.logger.Print(printf(tag+" "+format, v...))
}

func Debug(format string, v ...interface{}) {
	logAt(DebugLevel, debugPrintf, "[DEBUG]", format, v...)
}

func Info(format string, v ...interface{}) {
	logAt(InfoLevel, infoPrintf, "[INFO]", format, v...)
}

func Warn(format string, v ...interface{}) {
	logAt(WarnLevel, warnPrintf, "[WARN]", format, v...)
}

func Error(format string, v ...interface{}) {
	logAt(ErrorLevel, errorPrintf, "[ERROR]", format, v...)
}
