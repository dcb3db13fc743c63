package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/thermo/internal/config"
)

func TestSetup_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "thermo.log")
	logger, cleanup, err := Setup(config.LoggingConfig{Level: "debug", Format: "json", File: path}, "thermo")
	require.NoError(t, err)

	logger.Debug().Str("component", "gateway").Msg("connection opened")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "connection opened", entry["message"])
	assert.Equal(t, "gateway", entry["component"])
	assert.Equal(t, "thermo", entry["app"])
	assert.Equal(t, "debug", entry["level"])
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermo.log")
	logger, cleanup, err := Setup(config.LoggingConfig{Level: "WARN", File: path}, "thermo")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thermo.log")
	logger, cleanup, err := Setup(config.LoggingConfig{Format: "text", File: path}, "thermo")
	require.NoError(t, err)
	logger.Info().Msg("plain line")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plain line")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"))
}

func TestSetup_Errors(t *testing.T) {
	_, _, err := Setup(config.LoggingConfig{Level: "loud"}, "thermo")
	assert.ErrorContains(t, err, "parse log level")

	path := filepath.Join(t.TempDir(), "thermo.log")
	_, _, err = Setup(config.LoggingConfig{File: path, Loki: config.LokiConfig{Enabled: true}}, "thermo")
	assert.ErrorContains(t, err, "loki url is required")
}

func TestLokiLabels(t *testing.T) {
	assert.Equal(t, model.LabelSet{"app": "thermo-sim"}, lokiLabels(nil, "thermo-sim"))
	assert.Equal(t, model.LabelSet{"site": "lab"}, lokiLabels(map[string]string{"site": "lab"}, "thermo"))
}
