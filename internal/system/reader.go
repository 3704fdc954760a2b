// Package system
package system

import (
	"fmt"

	"healthd/internal/config"
	"healthd/internal/domain"
	"healthd/internal/logger"
)

// NewSource picks the counter source named by the config.
func NewSource(cfg *config.Config, log logger.Logger) (domain.CounterSource, error) {
	switch cfg.CounterSource {
	case config.SourceStatFile, "":
		return NewStatFile(cfg.StatPath, log), nil
	case config.SourceProcFS:
		return NewProcFS(cfg.ProcMount, log)
	default:
		return nil, fmt.Errorf("unknown counter source %q", cfg.CounterSource)
	}
}
