package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the encoder and level of the global logger
type Options struct {
	Env     string // "production" logs JSON at info, anything else logs console output at debug
	Level   string // overrides the env default when set, e.g. "warn"
	Service string // attached to every entry when set
}

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Init builds the global logger
func Init(opts Options) error {
	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	if opts.Service != "" {
		built = built.With(zap.String("service", opts.Service))
	}

	mu.Lock()
	global = built
	mu.Unlock()
	return nil
}

func buildConfig(opts Options) (zap.Config, error) {
	var cfg zap.Config
	if opts.Env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg, nil
}

// Sync flushes any buffered log entries
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if global != nil {
		_ = global.Sync()
	}
}

// Get returns the global logger, or a no-op logger before Init
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return zap.NewNop()
	}
	return global
}

// Named returns a child of the global logger tagged with a component name,
// e.g. Named("repository.location")
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
