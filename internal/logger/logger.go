// Package logger builds the zap logger and carries it through contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger for the given environment. prod emits JSON,
// local/dev/docker emit colored console output. A non-empty level
// overrides the environment default (debug, info, warn, error).
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
