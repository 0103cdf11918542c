package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleLogger_WritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo("debug", &buf)

	log.Info("Usuário criado.", map[string]interface{}{"user_id": 1})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Usuário criado.", entry.Message)
	assert.EqualValues(t, 1, entry.Fields["user_id"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestSimpleLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo("warn", &buf)

	log.Debug("debug", nil)
	log.Info("info", nil)
	log.Warn("warn", nil)
	log.Error("error", errors.New("falhou"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[1], `"error":"falhou"`)
}

func TestSimpleLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo("verbose", &buf)

	log.Debug("oculto", nil)
	log.Info("visível", nil)

	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visível")
}

func TestSimpleLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("info", &buf).(*SimpleLogger)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("encerrando", errors.New("sem disco"))

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), `"level":"FATAL"`)
}
