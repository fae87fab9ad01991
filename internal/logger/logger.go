package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

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
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// ParseLevel maps a level name to a Level, defaulting to INFO.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes levelled lines with a dotted component prefix.
// Loggers derived with WithPrefix share the parent's writer and lock.
type Logger struct {
	level  Level
	prefix string
	out    io.Writer
	mu     *sync.Mutex
	now    func() time.Time
}

// New creates a logger writing to stdout.
func New(level Level, prefix string) *Logger {
	return NewWithWriter(level, prefix, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(level Level, prefix string, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		prefix: prefix,
		out:    w,
		mu:     &sync.Mutex{},
		now:    time.Now,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(ERROR+1, "", io.Discard)
}

func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	var levelColor *color.Color
	switch level {
	case DEBUG:
		levelColor = color.New(color.FgHiBlack)
	case INFO:
		levelColor = color.New(color.FgCyan)
	case WARN:
		levelColor = color.New(color.FgYellow)
	default:
		levelColor = color.New(color.FgRed)
	}

	prefix := ""
	if l.prefix != "" {
		prefix = fmt.Sprintf("[%s] ", l.prefix)
	}

	line := fmt.Sprintf("%s %s%s %s\n",
		color.New(color.FgHiBlack).Sprintf("[%s]", l.now().Format("15:04:05")),
		prefix,
		levelColor.Sprintf("%-5s", level.String()),
		fmt.Sprintf(format, args...),
	)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// WithPrefix returns a child logger whose prefix is parent.prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + "." + prefix
	}
	return &Logger{
		level:  l.level,
		prefix: newPrefix,
		out:    l.out,
		mu:     l.mu,
		now:    l.now,
	}
}
