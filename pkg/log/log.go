// Package log is the zap-backed structured logger of the dispatch agent,
// dispatchctl and the examples. Components receive a Logger; the package
// functions write to the process logger set up by Init.
package log

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

// Logger logs messages with alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	// Error logs at error level with err attached as the "error" field.
	Error(err error, msg string, keysAndValues ...any)

	// WithName returns a logger whose name has name appended, e.g. "stream".
	WithName(name string) Logger
	// WithValues returns a logger adding keysAndValues to every entry, e.g. the room.
	WithValues(keysAndValues ...any) Logger

	// Logr adapts the logger for libraries logging through logr or klog.
	Logr() logr.Logger

	// Sync flushes buffered entries.
	Sync() error
}

var _ Logger = (*logger)(nil)

type logger struct {
	z *zap.Logger
}

// NewLogger builds a Logger from opts. Invalid levels fall back to info.
func NewLogger(opts *Options) Logger {
	if opts == nil {
		opts = NewOptions()
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     opts.DisableCaller,
		DisableStacktrace: true,
		Encoding:          opts.Format,
		EncoderConfig:     encoderConfig(opts),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}
	z, err := cfg.Build(zap.AddCallerSkip(opts.CallerSkip))
	if err != nil {
		panic(fmt.Sprintf("failed to build zap logger: %v", err))
	}
	if opts.Name != "" {
		z = z.Named(opts.Name)
	}
	return &logger{z: z}
}

// encoderConfig keeps durations such as reconnect delays human readable.
func encoderConfig(opts *Options) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.MessageKey = "message"
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	if opts.Format == "console" && opts.EnableColor {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return enc
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return &logger{z: zap.NewNop()}
}

func (l *logger) Debug(msg string, keysAndValues ...any) {
	l.z.Debug(msg, toFields(keysAndValues...)...)
}

func (l *logger) Info(msg string, keysAndValues ...any) {
	l.z.Info(msg, toFields(keysAndValues...)...)
}

func (l *logger) Warn(msg string, keysAndValues ...any) {
	l.z.Warn(msg, toFields(keysAndValues...)...)
}

func (l *logger) Error(err error, msg string, keysAndValues ...any) {
	fields := toFields(keysAndValues...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	l.z.Error(msg, fields...)
}

func (l *logger) WithName(name string) Logger {
	return &logger{z: l.z.Named(name)}
}

func (l *logger) WithValues(keysAndValues ...any) Logger {
	return &logger{z: l.z.With(toFields(keysAndValues...)...)}
}

func (l *logger) Logr() logr.Logger { return zapr.NewLogger(l.z) }

func (l *logger) Sync() error { return l.z.Sync() }

var (
	once sync.Once
	std  = NewNopLogger()
)

// Init sets up the process logger once and routes klog output of the
// Kubernetes libraries through it. Later calls do nothing.
func Init(opts *Options) {
	once.Do(func() {
		std = NewLogger(opts)
		klog.SetLogger(std.Logr().WithName("klog"))
	})
}

// Std returns the process logger.
func Std() Logger { return std }

func Debug(msg string, keysAndValues ...any)            { std.Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...any)             { std.Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...any)             { std.Warn(msg, keysAndValues...) }
func Error(err error, msg string, keysAndValues ...any) { std.Error(err, msg, keysAndValues...) }
func WithName(name string) Logger                       { return std.WithName(name) }
func Sync() error                                       { return std.Sync() }
