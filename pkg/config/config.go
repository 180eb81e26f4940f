package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	JWT    JWTConfig
	PAC    PACConfig
	Issuer IssuerConfig
	CFDI   CFDIConfig
	Redis  RedisConfig
	Log    LogConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
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

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// PACConfig conexión con el proveedor de timbrado.
type PACConfig struct {
	Mode           string // "dev" (mock, sin red), "test" o "prod"
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Timeout duración máxima de cada llamada al PAC.
func (c PACConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IssuerConfig datos fiscales del emisor. CodigoPostal se usa como LugarExpedicion.
type IssuerConfig struct {
	Rfc           string
	Nombre        string
	RegimenFiscal string
	CodigoPostal  string
}

// CFDIConfig reglas opcionales del validador.
type CFDIConfig struct {
	EnforcePPDFormaPago bool // exige FormaPago 99 con MetodoPago PPD
}

// RedisConfig ledger de envíos. URL vacía = ledger en memoria.
type RedisConfig struct {
	URL               string
	PendingTTLSeconds int
}

// PendingTTL vigencia de una reserva sin resultado del PAC.
func (c RedisConfig) PendingTTL() time.Duration {
	return time.Duration(c.PendingTTLSeconds) * time.Second
}

// LogConfig nivel del logger.
type LogConfig struct {
	Level string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, PAC_MODE, ISSUER_RFC, REDIS_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	// También intenta config.env
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "cfdi-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "cfdi-api"),
		},
		PAC: PACConfig{
			Mode:           strings.ToLower(getString(v, "PAC_MODE", "dev")),
			BaseURL:        getString(v, "PAC_BASE_URL", ""),
			APIKey:         getString(v, "PAC_API_KEY", ""),
			TimeoutSeconds: getInt(v, "PAC_TIMEOUT_SECONDS", 30),
		},
		Issuer: IssuerConfig{
			Rfc:           getString(v, "ISSUER_RFC", ""),
			Nombre:        getString(v, "ISSUER_NOMBRE", ""),
			RegimenFiscal: getString(v, "ISSUER_REGIMEN_FISCAL", ""),
			CodigoPostal:  getString(v, "ISSUER_CODIGO_POSTAL", ""),
		},
		CFDI: CFDIConfig{
			EnforcePPDFormaPago: getBool(v, "CFDI_ENFORCE_PPD_FORMA_PAGO", false),
		},
		Redis: RedisConfig{
			URL:               getString(v, "REDIS_URL", ""),
			PendingTTLSeconds: getInt(v, "LEDGER_PENDING_TTL_SECONDS", 300),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate solo lo indispensable para arrancar; los datos del emisor los revisa el validador de CFDI.
func (c *Config) validate() error {
	switch c.PAC.Mode {
	case "dev":
	case "test", "prod":
		if c.PAC.BaseURL == "" {
			return fmt.Errorf("config: PAC_BASE_URL es obligatorio con PAC_MODE=%s", c.PAC.Mode)
		}
	default:
		return fmt.Errorf("config: PAC_MODE inválido %q (dev, test o prod)", c.PAC.Mode)
	}
	if c.PAC.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: PAC_TIMEOUT_SECONDS debe ser mayor a cero")
	}
	return nil
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
		case int:
			return v.GetInt(key)
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

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
