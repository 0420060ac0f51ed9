package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del servicio de préstamos (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Backend   BackendConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Session   SessionConfig
	Scanner   ScannerConfig
	Telemetry TelemetryConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	Timezone string // zona horaria usada por las políticas de fecha de devolución
	// Institution nombre que encabeza el acta de préstamo.
	Institution string
	LogLevel    string
}

// Location devuelve la zona horaria configurada; si no se puede cargar usa la local.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DBConfig configuración de PostgreSQL (vistas persistidas y auditoría).
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// RedisConfig configuración de Redis (borradores de préstamo y sesiones de devolución).
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BackendConfig configuración del backend institucional de préstamos.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64 // 0 = sin límite
	Burst      int
}

// JWTConfig configuración de JWT (secreto compartido con el backend que emite los tokens).
type JWTConfig struct {
	Secret        string
	Issuer        string
	OperatorRoles []string // vacío = cualquier rol autenticado
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig vida de los borradores y sesiones de devolución.
type SessionConfig struct {
	TTL time.Duration
}

// ScannerConfig parámetros del puente de lector de código de barras.
type ScannerConfig struct {
	Device     string        // ruta del dispositivo o "-" para stdin
	Gap        time.Duration // inactividad que cierra un escaneo
	APIBaseURL string        // URL del propio servicio (cmd/scanbridge)
	Token      string        // Bearer token del operador de la estación
	DraftID    string
}

// TelemetryConfig exportación de trazas OTLP. Endpoint vacío = trazas deshabilitadas.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, BACKEND_BASE_URL, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:         getString(v, "APP_ENV", "development"),
			Name:        getString(v, "APP_NAME", "prestamos-api"),
			Timezone:    getString(v, "APP_TIMEZONE", "America/Lima"),
			Institution: getString(v, "APP_INSTITUTION", "Institución Educativa"),
			LogLevel:    getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "prestamos"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getString(v, "REDIS_ADDR", "localhost:6379"),
			Password: getString(v, "REDIS_PASSWORD", ""),
			DB:       getInt(v, "REDIS_DB", 0),
		},
		Backend: BackendConfig{
			BaseURL:    strings.TrimRight(getString(v, "BACKEND_BASE_URL", "http://localhost:3000/api"), "/"),
			Timeout:    time.Duration(getInt(v, "BACKEND_TIMEOUT_SECONDS", 15)) * time.Second,
			RatePerSec: getFloat(v, "BACKEND_RATE_PER_SEC", 20),
			Burst:      getInt(v, "BACKEND_RATE_BURST", 10),
		},
		JWT: JWTConfig{
			Secret:        getString(v, "JWT_SECRET", ""),
			Issuer:        getString(v, "JWT_ISSUER", "prestamos"),
			OperatorRoles: getList(v, "JWT_OPERATOR_ROLES"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Session: SessionConfig{
			TTL: time.Duration(getInt(v, "SESSION_TTL_MINUTES", 120)) * time.Minute,
		},
		Scanner: ScannerConfig{
			Device:     getString(v, "SCANNER_DEVICE", "-"),
			Gap:        time.Duration(getInt(v, "SCANNER_GAP_MS", 50)) * time.Millisecond,
			APIBaseURL: strings.TrimRight(getString(v, "SCANNER_API_BASE_URL", "http://localhost:8080/api"), "/"),
			Token:      getString(v, "SCANNER_TOKEN", ""),
			DraftID:    getString(v, "SCANNER_DRAFT_ID", ""),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getString(v, "OTEL_SERVICE_NAME", "prestamos-api"),
		},
	}

	if cfg.JWT.Secret == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("config: JWT_SECRET es obligatorio en producción")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
			if err != nil {
				return def
			}
			return f
		default:
			return v.GetFloat64(key)
		}
	}
	return def
}

// getList lee una lista separada por comas; los elementos vacíos se descartan.
func getList(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range strings.Split(getString(v, key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
