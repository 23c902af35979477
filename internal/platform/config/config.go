package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// DevJWTSecret es el secreto por defecto; solo válido fuera de producción.
	DevJWTSecret = "your-secret-key-change-in-production"
)

var (
	ErrInsecureSecret = errors.New("JWT_SECRET must be set in production")
)

// Config agrupa toda la configuración del servicio.
// Orden de carga: defaults -> archivo YAML (CONFIG_FILE) -> variables de entorno.
type Config struct {
	HTTPAddr     string        `yaml:"http_addr" envconfig:"HTTP_ADDR"`
	Port         string        `yaml:"-" envconfig:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"HTTP_WRITE_TIMEOUT"`

	AppEnv    string `yaml:"app_env" envconfig:"APP_ENV"`
	AppName   string `yaml:"app_name" envconfig:"APP_NAME"`
	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`

	DBDSN string `yaml:"db_dsn" envconfig:"DB_DSN"`

	JWTSecret  string        `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	JWTTTL     time.Duration `yaml:"jwt_ttl" envconfig:"JWT_TTL"`
	CookieName string        `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
	BcryptCost int           `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST"`

	// Prefijos de páginas protegidas por el filtro de borde.
	ProtectedPaths []string `yaml:"protected_paths" envconfig:"PROTECTED_PATHS"`
	LoginPath      string   `yaml:"login_path" envconfig:"LOGIN_PATH"`

	AMQPURL      string `yaml:"amqp_url" envconfig:"AMQP_URL"`
	AMQPExchange string `yaml:"amqp_exchange" envconfig:"AMQP_EXCHANGE"`

	OTLPEndpoint string `yaml:"otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		AppEnv:         EnvDevelopment,
		AppName:        "softpet",
		LogLevel:       "info",
		LogFormat:      "text",
		JWTSecret:      DevJWTSecret,
		JWTTTL:         7 * 24 * time.Hour,
		CookieName:     "auth_token",
		BcryptCost:     10,
		ProtectedPaths: []string{"/dashboard", "/pets"},
		LoginPath:      "/login",
		AMQPExchange:   "softpet.events",
	}
}

// Load arma la config desde defaults, CONFIG_FILE (opcional) y env.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// Sin tags default: envconfig solo pisa los campos cuya variable existe.
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	if cfg.Port != "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(cfg.Port, ":")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == DevJWTSecret) {
		return ErrInsecureSecret
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET is empty")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return errors.New("config: COOKIE_NAME is empty")
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("config: LOGIN_PATH must start with /: %q", c.LoginPath)
	}
	return nil
}

// IsProduction decide, entre otras cosas, si la cookie de sesión va con Secure.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}
