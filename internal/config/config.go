package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Auth struct {
		// Секрет, которым auth-шлюз подписывает сессионные токены
		JWTSecret string `yaml:"jwt_secret"`
		// Провайдеры, считающиеся парольными при сверке связок
		PasswordProviders []string `yaml:"password_providers"`
	} `yaml:"auth"`

	IdentityGateway struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"identity_gateway"`

	Payment struct {
		BaseURL        string `yaml:"base_url"`
		SecretKey      string `yaml:"secret_key"`
		ClientURL      string `yaml:"client_url"`
		Currency       string `yaml:"currency"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		// Смещение рабочей таймзоны в часах (Вьетнам: +7).
		// Фиксируется конфигом, а не таймзоной хоста.
		TimezoneOffsetHours int `yaml:"timezone_offset_hours"`
	} `yaml:"payment"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	Seed struct {
		SuperAdminSubjectID string `yaml:"super_admin_subject_id"`
		SuperAdminEmail     string `yaml:"super_admin_email"`
	} `yaml:"seed"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	// Режим теста/контейнера: конфигурация из переменных окружения
	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.IdentityGateway.BaseURL = os.Getenv("IDENTITY_GATEWAY_URL")
	cfg.IdentityGateway.APIKey = os.Getenv("IDENTITY_GATEWAY_API_KEY")
	cfg.Payment.BaseURL = os.Getenv("PAYMENT_BASE_URL")
	cfg.Payment.SecretKey = os.Getenv("PAYMENT_SECRET_KEY")
	cfg.Payment.ClientURL = os.Getenv("PAYMENT_CLIENT_URL")

	cfg.applyDefaults()
	AppConfig = &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if len(c.Auth.PasswordProviders) == 0 {
		c.Auth.PasswordProviders = []string{"password", "email"}
	}
	if c.IdentityGateway.TimeoutSeconds == 0 {
		c.IdentityGateway.TimeoutSeconds = 10
	}
	if c.Payment.TimeoutSeconds == 0 {
		c.Payment.TimeoutSeconds = 10
	}
	if c.Payment.TimezoneOffsetHours == 0 {
		c.Payment.TimezoneOffsetHours = 7
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "VND"
	}
}
