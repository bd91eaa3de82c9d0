package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/victorjacobs/go-easycontrols/config"
)

// New builds the process logger. Format "console" is meant for development,
// anything else produces JSON.
func New(cfg config.Logging) (*zap.SugaredLogger, error) {
	var zapCfg zap.Config
	if strings.ToLower(cfg.Format) == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar().With("service", config.TopicPrefix), nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
