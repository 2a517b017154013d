package internal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(LogLevelWarn, "json", &buf)

	log.Info("hidden %d", 1)
	log.Debug("hidden")
	log.Warn("shown %s", "warn")
	log.Error("shown error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown warn", entry["message"])
	assert.Equal(t, LogLevelWarn, log.GetLevel())
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(LogLevelInfo, "text", &buf)

	log.Info("[AuditService] analysed %d units", 400)

	assert.Contains(t, buf.String(), "[AuditService] analysed 400 units")
}
