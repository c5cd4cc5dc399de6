package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// FileOptions enables a rotating log file next to the console output.
type FileOptions struct {
	Path         string
	MaxMegabytes int
	MaxBackups   int
	MaxAgeDays   int
}

type Logger struct {
	min  Level
	zl   zerolog.Logger
	file io.Closer
}

func New(level string, jsonOut bool) *Logger {
	return newLogger(level, jsonOut, os.Stderr, nil)
}

// NewWithFile is New plus a lumberjack-rotated copy of every record in JSON form.
func NewWithFile(level string, jsonOut bool, fo FileOptions) *Logger {
	if strings.TrimSpace(fo.Path) == "" {
		return New(level, jsonOut)
	}
	lj := &lumberjack.Logger{
		Filename:   fo.Path,
		MaxSize:    fo.MaxMegabytes,
		MaxBackups: fo.MaxBackups,
		MaxAge:     fo.MaxAgeDays,
	}
	return newLogger(level, jsonOut, os.Stderr, lj)
}

// NewFileOnly writes JSON records to the rotating file and nowhere else. An
// empty path yields a logger that discards everything.
func NewFileOnly(level string, fo FileOptions) *Logger {
	if strings.TrimSpace(fo.Path) == "" {
		return newLogger(level, true, io.Discard, nil)
	}
	return newLogger(level, true, io.Discard, &lumberjack.Logger{
		Filename:   fo.Path,
		MaxSize:    fo.MaxMegabytes,
		MaxBackups: fo.MaxBackups,
		MaxAge:     fo.MaxAgeDays,
	})
}

// NewWriter logs to w only. Used by tests and by the TUI, which must keep the terminal clean.
func NewWriter(level string, jsonOut bool, w io.Writer) *Logger {
	return newLogger(level, jsonOut, w, nil)
}

func newLogger(level string, jsonOut bool, out io.Writer, file *lumberjack.Logger) *Logger {
	var console io.Writer = out
	if !jsonOut {
		console = zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339, PartsExclude: []string{zerolog.TimestampFieldName}}
	}
	w := console
	l := &Logger{min: ParseLevel(level)}
	if file != nil {
		w = zerolog.MultiLevelWriter(console, file)
		l.file = file
	}
	l.zl = zerolog.New(w).Level(zerologLevel(l.min)).With().Timestamp().Logger()
	return l
}

func (l *Logger) Enabled(v Level) bool { return l != nil && v >= l.min }

func (l *Logger) Debugf(format string, a ...any) { l.log(Debug, fmt.Sprintf(format, a...)) }
func (l *Logger) Infof(format string, a ...any)  { l.log(Info, fmt.Sprintf(format, a...)) }
func (l *Logger) Warnf(format string, a ...any)  { l.log(Warn, fmt.Sprintf(format, a...)) }
func (l *Logger) Errorf(format string, a ...any) { l.log(Error, fmt.Sprintf(format, a...)) }

// With returns a child logger that adds key=value to every record.
func (l *Logger) With(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{min: l.min, zl: l.zl.With().Str(key, value).Logger(), file: l.file}
}

// Close releases the rotating log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) log(level Level, msg string) {
	if !l.Enabled(level) {
		return
	}
	l.zl.WithLevel(zerologLevel(level)).Msg(msg)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
