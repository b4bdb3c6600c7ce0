package config

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. The returned AtomicLevel is the only
// handle for changing verbosity at runtime; callers inject both.
func NewLogger(cfg *Config) (*zap.Logger, zap.AtomicLevel, error) {
	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, zap.AtomicLevel{}, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, eris.Wrap(err, "config: build logger")
	}
	return logger.Named("shelf_scanner"), zapCfg.Level, nil
}
