package logging

import (
	"testing"

	"github.com/sourceplane/tmplstudio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		cfg     config.LoggingConfig
		level   zapcore.Level
		wantErr bool
	}{
		{cfg: config.LoggingConfig{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{cfg: config.LoggingConfig{Level: "warn", Format: "json"}, level: zapcore.WarnLevel},
		{cfg: config.LoggingConfig{Level: "info"}, level: zapcore.InfoLevel},
		{cfg: config.LoggingConfig{Level: "loud", Format: "json"}, wantErr: true},
		{cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Level+"/"+tt.cfg.Format, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		})
	}
}
