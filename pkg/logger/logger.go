// Package logger builds the process-wide zap logger and hands out named,
// sugared children of it.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

// Logger is a named sugared logger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	mu   sync.RWMutex
	root *zap.Logger
)

// Init replaces the root logger. format is "json" or "console".
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	l := zap.New(core, zap.AddCaller())

	mu.Lock()
	root = l
	mu.Unlock()
	return nil
}

func getRoot() *zap.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		root = l
	}
	return root
}

// Named returns a child logger with the given name.
func Named(name string) (*Logger, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("logger name is empty")
	}
	return &Logger{SugaredLogger: getRoot().Named(name).Sugar()}, nil
}

func MustNamed(name string) *Logger {
	l, err := Named(name)
	if err != nil {
		panic(err)
	}
	return l
}

// Root returns the unnamed root logger.
func Root() *Logger {
	return &Logger{SugaredLogger: getRoot().Sugar()}
}

func (l *Logger) Unwrap() *zap.SugaredLogger {
	return l.SugaredLogger
}

// Reflect wraps v so it is serialized with reflection.
func (l *Logger) Reflect(key string, v any) zap.Field {
	return zap.Reflect(key, v)
}

// Sync flushes the root logger.
func Sync() {
	_ = getRoot().Sync()
}
