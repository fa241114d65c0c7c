// Package logger provides a structured logging facility based on Zap.
//
// It supports development (console) and production (json) encodings and
// integrates with the Fiber web surface via WithRayID, which attaches the
// request ray_id so every log line of one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Agent started")
package logger
