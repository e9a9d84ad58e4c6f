package logging

import (
	"context"
	"io"
	"maps"
	"os"

	"github.com/sirupsen/logrus"
)

// Format selects the logrus formatter
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// DefaultLogger is the logrus-backed Logger.
// Debug/Info -> stdout, Warn/Error/Fatal -> stderr.
type DefaultLogger struct {
	stdout *logrus.Logger
	stderr *logrus.Logger
	fields Fields
}

// NewDefaultLogger creates a text logger at info level
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, FormatText)
}

// NewLogger creates a logger writing info and below to out and warnings and
// above to errOut. Both may be the same writer.
func NewLogger(out, errOut io.Writer, format Format) *DefaultLogger {
	return &DefaultLogger{
		stdout: newLogrus(out, format),
		stderr: newLogrus(errOut, format),
		fields: make(Fields),
	}
}

func newLogrus(w io.Writer, format Format) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	if format == FormatJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !isTerminal(w),
		})
	}
	return l
}

// isTerminal reports whether w is a character device
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && (info.Mode()&os.ModeCharDevice) != 0
}

func (d *DefaultLogger) entry(l *logrus.Logger, fields []Fields) *logrus.Entry {
	all := make(logrus.Fields, len(d.fields))
	maps.Copy(all, d.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}
	return l.WithFields(all)
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.entry(d.stdout, fields).Debug(msg)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.entry(d.stdout, fields).Info(msg)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.entry(d.stderr, fields).Warn(msg)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.entry(d.stderr, fields).WithError(err).Error(msg)
}

// Fatal logs and exits the process through logrus
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.entry(d.stderr, fields).WithError(err).Fatal(msg)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(d.fields)+len(fields))
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		stdout: d.stdout,
		stderr: d.stderr,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields := FieldsFromContext(ctx); len(fields) > 0 {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel applies to every logger derived from the same root
func (d *DefaultLogger) SetLevel(level Level) {
	lvl := toLogrus(level)
	d.stdout.SetLevel(lvl)
	d.stderr.SetLevel(lvl)
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}
