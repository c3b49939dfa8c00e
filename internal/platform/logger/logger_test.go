package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmorris/wordforge/internal/config"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"mixed case", "DEBUG"},
		{"invalid falls back to info", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Setup(config.ServerConfig{Port: 8080, LogLevel: tt.logLevel})
			assert.NotNil(t, logger)
		})
	}
}
