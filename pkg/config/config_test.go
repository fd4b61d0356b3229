package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fel-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "fel-api", cfg.App.Name)
	assert.Equal(t, "fel", cfg.DB.DBName)
	assert.Equal(t, "America/Guatemala", cfg.FEL.Timezone)
	assert.Equal(t, "1", cfg.FEL.ExportPhraseScenario)
	assert.Equal(t, 60*time.Second, cfg.FEL.Timeout())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("FEL_BASE_URL", "http://localhost:9000/rest")
	t.Setenv("FEL_TOKEN_NIT", "28733657")
	t.Setenv("FEL_TOKEN_CLAVE", "CLAVE")
	t.Setenv("FEL_TIMEOUT_SECONDS", "15")
	t.Setenv("FEL_CERT_NIT", "1234567")
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("DB_FORCE_IPV4", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/rest", cfg.FEL.BaseURL)
	assert.Equal(t, "28733657", cfg.FEL.TokenNit)
	assert.Equal(t, "CLAVE", cfg.FEL.TokenClave)
	assert.Equal(t, 15*time.Second, cfg.FEL.Timeout())
	assert.Equal(t, "1234567", cfg.FEL.Cert.NIT)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestLoad_EnteroInvalidoUsaDefecto(t *testing.T) {
	t.Setenv("HTTP_PORT", "ochenta")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_ProduccionSinSecreto(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "fel", Password: "p@ss:word", DBName: "fel", SSLMode: "disable"}
	assert.Equal(t, "postgres://fel:p%40ss%3Aword@db:5432/fel?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestFELConfig_Location(t *testing.T) {
	assert.Nil(t, config.FELConfig{Timezone: "Marte/Olympus"}.Location())
	assert.NotNil(t, config.FELConfig{Timezone: "UTC"}.Location())
}
