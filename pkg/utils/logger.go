package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger: development config (human-readable, debug
// level) when debug is true, production config (JSON, info level) otherwise.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
