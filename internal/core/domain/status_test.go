package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lockres/internal/core/domain"
)

func TestNodeStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status     domain.NodeStatus
		isTerminal bool
	}{
		{domain.NodeStatusPending, false},
		{domain.NodeStatusRunning, false},
		{domain.NodeStatusInstalled, true},
		{domain.NodeStatusFailed, true},
		{domain.NodeStatusBlocked, true},
		{domain.NodeStatusSkipped, true},
		{domain.NodeStatusCached, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

func TestNormalizeNodeStatus(t *testing.T) {
	assert.Equal(t, domain.NodeStatusBlocked, domain.NormalizeNodeStatus("BLOCKED"))
	assert.Equal(t, domain.NodeStatusInstalled, domain.NormalizeNodeStatus("installed"))
	assert.Equal(t, domain.NodeStatusCached, domain.NormalizeNodeStatus("Cached"))
	assert.Equal(t, domain.NodeStatusPending, domain.NormalizeNodeStatus("unknown"))
	assert.Equal(t, domain.NodeStatusPending, domain.NormalizeNodeStatus(""))
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", domain.LogLevelDebug.String())
	assert.Equal(t, "WARN", domain.LogLevelWarn.String())
	assert.Equal(t, "ERROR", domain.LogLevelError.String())
	assert.Equal(t, "INFO", domain.LogLevel(999).String())
}
