package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFallback(t *testing.T) {
	var buf bytes.Buffer

	l, err := NewWithWriter(&buf, "nonsense", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	l, err = NewWithWriter(&buf, "debug", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}

func TestNew_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")

	l, err := NewWithWriter(&buf, "info", path)
	require.NoError(t, err)

	l.Component("view").Info().Int("year", 2024).Msg("stats fetch succeeded")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"view"`)
	assert.Contains(t, string(data), `"year":2024`)
	assert.Contains(t, buf.String(), "stats fetch succeeded")
}

func TestGet_BeforeInit(t *testing.T) {
	prev := Global
	Global = nil
	defer func() { Global = prev }()

	l := Get()
	require.NotNil(t, l)
	// must not panic
	l.Info().Msg("dropped")
	l.Zerolog().Debug().Msg("dropped")
}
