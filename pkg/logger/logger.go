// Package logger wraps go-logr/logr (backed by zap) into the small leveled
// helper used across this module. It exists so the core never reaches for a
// package-level global logger: every constructor that can log takes a
// *Log explicitly, and a nil *Log is always safe to call.
package logger

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is a thin leveled wrapper over logr.Logger.
type Log struct {
	logr.Logger
	valid bool
}

// New creates a logger for the given name. production selects the zap
// production encoder config (JSON, sampled) over the development one
// (console, colored level).
func New(name string, production bool) (*Log, error) {
	var zc zap.Config
	if production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.DisableCaller = true
	zc.DisableStacktrace = true

	z, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return &Log{Logger: zapr.NewLogger(z).WithName(name), valid: true}, nil
}

// NewSimple creates a logger backed by the global zap logger, for call sites
// that don't want to own a *zap.Logger lifecycle.
func NewSimple(name string) *Log {
	return &Log{Logger: zapr.NewLogger(zap.L().Named(name)), valid: true}
}

// New returns a named child logger, or a no-op logger if the receiver is nil.
func (l *Log) New(name string) *Log {
	if l == nil || !l.valid {
		return nil
	}
	return &Log{Logger: l.WithName(name), valid: true}
}

// Info logs at info level. Safe to call on a nil *Log.
func (l *Log) Info(msg string, keysAndValues ...any) {
	if l == nil || !l.valid {
		return
	}
	l.Logger.V(0).Info(msg, keysAndValues...)
}

// Warn logs a warning. logr has no native Warn, so this is an Info at V(0),
// the same verbosity as Info, with the message prefixed by "WARN ".
func (l *Log) Warn(msg string, keysAndValues ...any) {
	if l == nil || !l.valid {
		return
	}
	l.Logger.V(0).Info("WARN "+msg, keysAndValues...)
}

// Error logs at error level with the causing error attached.
func (l *Log) Error(err error, msg string, keysAndValues ...any) {
	if l == nil || !l.valid {
		return
	}
	l.Logger.Error(err, msg, keysAndValues...)
}

// Debug logs at debug verbosity.
func (l *Log) Debug(msg string, keysAndValues ...any) {
	if l == nil || !l.valid {
		return
	}
	l.Logger.V(1).Info(msg, keysAndValues...)
}

// ByStatus logs msg at the level the response status calls for: warn for
// 4xx, error for 5xx, following the level rule in spec.md §7 ("4xx at warn,
// 5xx and transport failures at error").
func (l *Log) ByStatus(status int, msg string, keysAndValues ...any) {
	if status >= 500 {
		l.Error(nil, msg, keysAndValues...)
		return
	}
	l.Warn(msg, keysAndValues...)
}

// maskedHeaderNames lists header name fragments (case-insensitive) that must
// never appear in a log line, per the masking rule.
var maskedHeaderNames = []string{"authorization", "token", "key"}

// MaskHeader returns mask instead of value when header matches one of the
// sensitive name fragments, and value unchanged otherwise. Every log call
// site in this module that logs a header goes through this first.
func MaskHeader(header, value string) string {
	h := strings.ToLower(header)
	for _, frag := range maskedHeaderNames {
		if strings.Contains(h, frag) {
			return "***masked***"
		}
	}
	return value
}
