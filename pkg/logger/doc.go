// Package logger provides the structured logging interface used across assetfetch.
//
// It wraps zerolog behind a small Logger interface so components can take a
// logger as a dependency and tests can substitute NewNopLogger or NewTestLogger.
// Console output is written to stderr; stdout is left to the progress lines.
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("local_id", "squats").Info("asset saved")
package logger
