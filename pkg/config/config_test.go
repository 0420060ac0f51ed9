package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/prestamos-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "prestamos-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 120*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 50*time.Millisecond, cfg.Scanner.Gap)
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BACKEND_BASE_URL", "http://backend:3000/api/")
	t.Setenv("BACKEND_RATE_PER_SEC", "2.5")
	t.Setenv("SESSION_TTL_MINUTES", "15")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "http://backend:3000/api", cfg.Backend.BaseURL, "se recorta la barra final")
	assert.InDelta(t, 2.5, cfg.Backend.RatePerSec, 0.0001)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
}

func TestLoad_RolesDeOperador(t *testing.T) {
	t.Setenv("JWT_OPERATOR_ROLES", " operador, ,admin ")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"operador", "admin"}, cfg.JWT.OperatorRoles)
}

func TestLoad_ProduccionSinSecretoFalla(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "prestamos", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/prestamos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}

func TestAppConfig_LocationInvalidaUsaLocal(t *testing.T) {
	assert.Equal(t, time.Local, config.AppConfig{Timezone: "No/Existe"}.Location())
	assert.Equal(t, "America/Lima", config.AppConfig{Timezone: "America/Lima"}.Location().String())
}
