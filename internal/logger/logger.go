// Package logger threads a logrus entry through context.Context.
//
// Diagnostics go to stderr so they never mix with reports on stdout.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Log formats accepted by Configure. "fmt" is kept as an alias of "text".
const (
	FormatText = "text"
	FormatJSON = "json"
)

type ctxKey struct{}

// root is the entry used when the context carries none.
var root = logrus.NewEntry(newLogger(os.Stderr))

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	l.Formatter = formatter(FormatText)
	return l
}

func formatter(format string) logrus.Formatter {
	if format == FormatJSON {
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
	return &logrus.TextFormatter{TimestampFormat: time.RFC3339Nano, FullTimestamp: true}
}

// Configure sets the level and format of the root logger. Both are checked
// before either is applied.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "--log-level")
	}
	switch format {
	case FormatText, "fmt", FormatJSON:
	default:
		return errors.Errorf("--log-format: unknown format %q (want text or json)", format)
	}
	root.Logger.SetLevel(lvl)
	root.Logger.Formatter = formatter(format)
	return nil
}

// G returns the entry stored in ctx, or the root entry.
func G(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return e
	}
	return root.WithContext(ctx)
}

// WithLogger stores e in ctx.
func WithLogger(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, e.WithContext(ctx))
}

// With returns a context whose logger carries key=value on every entry.
func With(ctx context.Context, key string, value any) context.Context {
	return WithLogger(ctx, G(ctx).WithField(key, value))
}
