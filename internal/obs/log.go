package obs

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerMu sync.Mutex
	logger   *zap.SugaredLogger
)

// Init builds the shared production logger at the given level. Safe to call
// more than once; later calls replace the logger.
func Init(level string) {
	cfg := zap.NewProductionConfig()
	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return
	}
	loggerMu.Lock()
	logger = l.Sugar()
	loggerMu.Unlock()
}

// Logger returns the shared structured logger used across the service.
func Logger() *zap.SugaredLogger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}
	return logger
}

// ReplaceLogger swaps the shared logger and returns a restore func.
// Intended for tests that capture log output.
func ReplaceLogger(l *zap.SugaredLogger) func() {
	loggerMu.Lock()
	prev := logger
	logger = l
	loggerMu.Unlock()
	return func() {
		loggerMu.Lock()
		logger = prev
		loggerMu.Unlock()
	}
}
