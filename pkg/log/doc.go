// Package log provides structured client event logging for GazeLink.
//
// This package defines the Logger interface and Event types for capturing
// SDK-level events (session lifecycle, frame fetches, blocking waits,
// calibration progress, compositor submissions). It is separate from
// operational logging (slog) - event capture provides a complete
// machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/gazelink/client.glog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/gazelink/client.glog"),
//	)
//
// # File Format
//
// Log files use CBOR encoding with .glog extension. The gazelink-record
// CLI tool provides viewing and filtering capabilities.
package log
