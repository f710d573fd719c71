package logger

import "go.uber.org/zap"

// Log is process-wide logger, replaced by Initialize at startup
var Log = zap.NewNop()

// Initialize builds production logger with given level
func Initialize(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = log
	return nil
}
