package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fel-api/pkg/logger"
)

func TestLogger_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf}).Component("dte")

	l.Info().Str("step", "procesar").Int("estado_http", 200).Msg("paso completado")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dte", entry["component"])
	assert.Equal(t, "procesar", entry["step"])
	assert.Equal(t, float64(200), entry["estado_http"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "WARN", Output: &buf})

	l.Info().Msg("no sale")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("sale")
	assert.NotZero(t, buf.Len())
}

func TestLogger_NivelInvalidoEsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "ruidoso", Output: &buf})

	l.Debug().Msg("no sale")
	l.Info().Msg("sale")
	assert.Contains(t, buf.String(), "sale")
	assert.NotContains(t, buf.String(), "no sale")
}

func TestLogger_Nop(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Error().Msg("nada") })
}
