package util

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "duck-storefront"

var logger *zap.Logger

// InitLogger builds the process logger. A non-empty level overrides the
// environment's default (debug in development, info in production).
func InitLogger(env, level string) error {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("failed to parse log level %q: %w", level, err)
		}
		config.Level = lvl
	}
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     env,
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = built
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the process logger, falling back to a development logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// ForAccount scopes the process logger to one account
func ForAccount(accountID int64) *zap.Logger {
	return GetLogger().With(zap.Int64("account_id", accountID))
}

// SetLogger swaps the process logger (tests use zap.NewNop)
func SetLogger(l *zap.Logger) {
	logger = l
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
