// Package logging constructs the process-wide zap logger.
package logging

import "go.uber.org/zap"

// New builds a production logger, or a development (console-encoded, debug
// level) logger when nodeEnv is "development" — the only consumer of the
// spec's NODE_ENV environment variable.
func New(nodeEnv string) (*zap.Logger, error) {
	if nodeEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
