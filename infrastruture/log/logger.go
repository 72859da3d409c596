package log

import (
	"errors"
	"io"
	stdlog "log"

	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
)

var _ general_i.Logger = &Logger{}

var (
	ErrNilWriter = errors.New("nil log writer")
)

const (
	infoColor    = "\033[32m"
	warningColor = "\033[33m"
	errorColor   = "\033[31m"
	resetColor   = "\033[0m"
)

// Logger writes leveled lines tagged with a colored component prefix, e.g.
//
//	[BRIDGE] [INFO] connected to ws://localhost:8765
type Logger struct {
	prefix string
	color  string
	out    *stdlog.Logger
}

// New creates a logger that tags every line with prefix rendered in color.
func New(prefix, color string, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	return &Logger{
		prefix: prefix,
		color:  color,
		out:    stdlog.New(w, "", stdlog.LstdFlags),
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l, _ := New("", "", io.Discard)
	return l
}

// Info implements general_i.Logger.
func (l *Logger) Info(msg string) {
	l.write(infoColor, "INFO", msg)
}

// Warning implements general_i.Logger.
func (l *Logger) Warning(msg string) {
	l.write(warningColor, "WARNING", msg)
}

// Error implements general_i.Logger.
func (l *Logger) Error(msg string) {
	l.write(errorColor, "ERROR", msg)
}

func (l *Logger) write(levelColor, level, msg string) {
	l.out.Printf("%s[%s]%s %s[%s]%s %s", l.color, l.prefix, resetColor, levelColor, level, resetColor, msg)
}
