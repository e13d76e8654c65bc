package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockres/internal/adapters/logger"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)

	l.Info("graph built")
	l.Warn("competing variants")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "graph built")
	assert.Contains(t, out, "competing variants")
	assert.NotContains(t, out, "hidden")
}

func TestLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	l.SetVerbose(true)

	l.Debug("marker evaluated")
	assert.Contains(t, buf.String(), "marker evaluated")
}

func TestLogger_JSONErrorMetadata(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New()
	l.SetOutput(&buf)
	l.SetJSON(true)

	err := zerr.With(zerr.Wrap(domain.ErrCycle, "cycle detected"), "cycle", "a -> b -> a")
	l.Error(err)

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "a -> b -> a", record["cycle"])
	assert.Contains(t, record["error"], "cycle detected")
}
