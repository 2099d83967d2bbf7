package logger

import (
	"bytes"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel(LOG_LEVEL_DEBUG))
	require.Equal(t, zerolog.ErrorLevel, ParseLevel(LOG_LEVEL_ERROR))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("unknown"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	t.Setenv(logLevelEnv, LOG_LEVEL_WARN)
	log := NewLogger("Test")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "Test", entry["component"])
	require.Equal(t, "kept", entry["message"])
}
