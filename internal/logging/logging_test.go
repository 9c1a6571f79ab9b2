package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuswatch/statuswatch/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "WARN", Service: "statuswatch-api", Version: "1.2.3", Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Str("provider", "openai").Msg("feed slow")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "feed slow", entry["message"])
	assert.Equal(t, "statuswatch-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "openai", entry["provider"])
	assert.Contains(t, entry, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Config{Format: logging.FormatConsole, Output: &buf})
	require.NoError(t, err)

	logger.Info().Msg("tracker started")
	assert.Contains(t, buf.String(), "tracker started")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestNew_Invalid(t *testing.T) {
	_, err := logging.New(logging.Config{Level: "loud"})
	assert.Error(t, err)

	_, err = logging.New(logging.Config{Format: "xml"})
	assert.Error(t, err)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, logging.FormatConsole, logging.FormatFor(""))
	assert.Equal(t, logging.FormatConsole, logging.FormatFor("Development"))
	assert.Equal(t, logging.FormatJSON, logging.FormatFor("production"))
}
