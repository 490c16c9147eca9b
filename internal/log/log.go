package log

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Options struct {
	Enabled bool
	// Path is a file to write to instead of stderr.
	Path    string
	Verbose bool
}

// New builds a logger. A disabled logger discards everything; verbose
// logging switches to the development console encoder at debug level.
func New(opts Options) (*zap.Logger, error) {
	if !opts.Enabled {
		return zap.NewNop(), nil
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
		cfg.Sampling = nil
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if opts.Path != "" {
		cfg.OutputPaths = []string{opts.Path}
		cfg.ErrorOutputPaths = []string{opts.Path}
	}

	l, err := cfg.Build()
	return l, errors.WithStack(err)
}

var (
	mu            sync.RWMutex
	defaultLogger = zap.NewNop()
)

// Get returns the process-wide logger.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func Flush() {
	_ = Get().Sync()
}
