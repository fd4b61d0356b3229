package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App  AppConfig
	DB   DBConfig
	JWT  JWTConfig
	HTTP HTTPConfig
	FEL  FELConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
// Enabled=false deja la API sin persistencia (los DTE certificados no se guardan).
type DBConfig struct {
	Enabled     bool
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	ForceIPv4   bool
}

// ConnectionString devuelve DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN connection string con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
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

// FELConfig conexión con el portal FEL de la SAT y valores del documento de solicitud.
type FELConfig struct {
	BaseURL        string
	RefererURL     string
	TokenNit       string // token de la sesión "Nuevo DTE"
	TokenClave     string
	Password       string // frasePaso para firmar
	Timezone       string
	TimeoutSeconds int
	// Escenario de la frase que se agrega a los documentos de exportación
	ExportPhraseScenario string
	Cert                 FELCertConfig
}

// FELCertConfig valores con los que se prellena Certificacion (vacío = valores históricos).
type FELCertConfig struct {
	NIT           string
	Name          string
	Serie         string
	Numero        string
	Authorization string
	Date          string
}

// Timeout duración del timeout HTTP hacia el portal.
func (c FELConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location zona horaria de FechaHoraEmision; nil si no se pudo cargar.
func (c FELConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde .env / config.env).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "fel-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Enabled:     getBool(v, "DB_ENABLED", true),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "fel"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
			ForceIPv4:   getBool(v, "DB_FORCE_IPV4", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "fel-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		FEL: FELConfig{
			BaseURL:              getString(v, "FEL_BASE_URL", "https://felav02.c.sat.gob.gt/fel-rest/rest"),
			RefererURL:           getString(v, "FEL_REFERER_URL", "https://felav.c.sat.gob.gt/fel-web/privado/vistas/fel.jsf"),
			TokenNit:             getString(v, "FEL_TOKEN_NIT", ""),
			TokenClave:           getString(v, "FEL_TOKEN_CLAVE", ""),
			Password:             getString(v, "FEL_PASSWORD", ""),
			Timezone:             getString(v, "FEL_TIMEZONE", "America/Guatemala"),
			TimeoutSeconds:       getInt(v, "FEL_TIMEOUT_SECONDS", 60),
			ExportPhraseScenario: getString(v, "FEL_EXPORT_PHRASE_SCENARIO", "1"),
			Cert: FELCertConfig{
				NIT:           getString(v, "FEL_CERT_NIT", ""),
				Name:          getString(v, "FEL_CERT_NAME", ""),
				Serie:         getString(v, "FEL_CERT_SERIE", ""),
				Numero:        getString(v, "FEL_CERT_NUMERO", ""),
				Authorization: getString(v, "FEL_CERT_AUTHORIZATION", ""),
				Date:          getString(v, "FEL_CERT_DATE", ""),
			},
		},
	}

	if cfg.App.Env == "production" && cfg.JWT.Secret == "" {
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
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}
