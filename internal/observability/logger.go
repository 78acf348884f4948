package observability

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the production logger. LOG_LEVEL=debug switches to the
// development config.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_LEVEL") == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
