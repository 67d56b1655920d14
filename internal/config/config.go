package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Configuration struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Security    SecurityConfig   `toml:"security"`
	Logging     LoggingConfig    `toml:"logging"`
	Database    DatabaseConfig   `toml:"database"`
	Redis       RedisConfig      `toml:"redis"`
	Generation  GenerationConfig `toml:"generation"`
	DocuSign    DocuSignConfig   `toml:"docusign"`
	Render      RenderConfig     `toml:"render"`
}

type ServerConfig struct {
	Port            string        `toml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type SecurityConfig struct {
	JWTSecret         string        `toml:"jwt_secret"`
	JWTRefreshSecret  string        `toml:"jwt_refresh_secret"`
	AccessTokenTTL    time.Duration `toml:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `toml:"refresh_token_ttl"`
	PasswordMinLength int           `toml:"password_min_length"`
	MaxFailedAttempts int           `toml:"max_failed_attempts"`
	LockoutDuration   time.Duration `toml:"lockout_duration"`
	// EncryptionKey keys the cipher protecting stored DocuSign tokens.
	EncryptionKey string `toml:"encryption_key"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type DatabaseConfig struct {
	// URL, when set, replaces the discrete fields. "sqlite://" selects the
	// embedded driver, e.g. sqlite://file::memory:?cache=shared.
	URL             string `toml:"url"`
	Host            string `toml:"host"`
	Port            string `toml:"port"`
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	Name            string `toml:"name"`
	SSLMode         string `toml:"ssl_mode"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	LogQueries      bool   `toml:"log_queries"`
}

// RedisConfig is optional; an empty Addr disables every redis-backed feature.
type RedisConfig struct {
	Addr        string        `toml:"addr"`
	Password    string        `toml:"password"`
	DB          int           `toml:"db"`
	TemplateTTL time.Duration `toml:"template_ttl"`
}

type GenerationConfig struct {
	APIKey            string        `toml:"api_key"`
	Model             string        `toml:"model"`
	Temperature       float32       `toml:"temperature"`
	SystemInstruction string        `toml:"system_instruction"`
	Timeout           time.Duration `toml:"timeout"`
}

type DocuSignConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AuthServer   string `toml:"auth_server"`
	APIBase      string `toml:"api_base"`
	TempDir      string `toml:"temp_dir"`
}

type RenderConfig struct {
	AllowRawHTML bool `toml:"allow_raw_html"`
}

var (
	config     *Configuration
	configOnce sync.Once
	configLock sync.RWMutex
)

// LoadConfig resolves the process configuration once. Later calls return the
// first result.
func LoadConfig(filePath string) (*Configuration, error) {
	var err error

	configOnce.Do(func() {
		var loaded *Configuration
		loaded, err = Load(filePath)
		if err != nil {
			return
		}
		configLock.Lock()
		config = loaded
		configLock.Unlock()
	})

	return GetConfig(), err
}

// Load builds a configuration from defaults, an optional TOML file, an
// optional .env file and the environment, in that order of precedence.
func Load(filePath string) (*Configuration, error) {
	cfg := Default()

	if filePath != "" {
		if _, err := toml.DecodeFile(filePath, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetConfig() *Configuration {
	configLock.RLock()
	defer configLock.RUnlock()
	return config
}

func UpdateConfig(updater func(*Configuration)) {
	configLock.Lock()
	defer configLock.Unlock()
	updater(config)
}

// InitializeDefaultConfig installs the defaults as the process configuration.
func InitializeDefaultConfig() *Configuration {
	configLock.Lock()
	defer configLock.Unlock()
	config = Default()
	return config
}

func Default() *Configuration {
	return &Configuration{
		Environment: "development",
		Server: ServerConfig{
			Port:            "3000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			JWTSecret:         "dev-jwt-secret",
			JWTRefreshSecret:  "dev-jwt-refresh-secret",
			AccessTokenTTL:    3 * time.Hour,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			PasswordMinLength: 8,
			MaxFailedAttempts: 5,
			LockoutDuration:   15 * time.Minute,
			EncryptionKey:     "dev-encryption-key",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			Username:        "postgres",
			Password:        "password",
			Name:            "legal_ai",
			SSLMode:         "disable",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			TemplateTTL: 10 * time.Minute,
		},
		Generation: GenerationConfig{
			Model:             "gemini-1.5-flash",
			Temperature:       0.1,
			SystemInstruction: "You are a legal document assistant helping to generate precise legal sections.",
			Timeout:           60 * time.Second,
		},
		DocuSign: DocuSignConfig{
			AuthServer: "https://account-d.docusign.com",
			APIBase:    "https://demo.docusign.net/restapi",
			TempDir:    "temp",
		},
	}
}

func applyEnv(cfg *Configuration) {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Security.JWTSecret, "JWT_SECRET")
	setString(&cfg.Security.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	setString(&cfg.Security.EncryptionKey, "ENCRYPTION_KEY")
	setString(&cfg.Generation.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Generation.Model, "GEMINI_MODEL")
	setString(&cfg.DocuSign.ClientID, "DOCUSIGN_CLIENT_ID")
	setString(&cfg.DocuSign.ClientSecret, "DOCUSIGN_CLIENT_SECRET")
	setString(&cfg.DocuSign.RedirectURI, "DOCUSIGN_REDIRECT_URI")
	setString(&cfg.DocuSign.AuthServer, "DOCUSIGN_AUTH_SERVER")
	setString(&cfg.DocuSign.APIBase, "DOCUSIGN_API_BASE")

	if v, ok := os.LookupEnv("RENDER_ALLOW_RAW_HTML"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Render.AllowRawHTML = b
		}
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func (c *Configuration) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Configuration) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port must be set")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation temperature %v out of range", c.Generation.Temperature)
	}
	if !c.IsProduction() {
		return nil
	}

	var missing []string
	if c.Security.JWTSecret == "" || c.Security.JWTSecret == Default().Security.JWTSecret {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Security.JWTRefreshSecret == "" || c.Security.JWTRefreshSecret == Default().Security.JWTRefreshSecret {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if c.Security.EncryptionKey == "" || c.Security.EncryptionKey == Default().Security.EncryptionKey {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("production requires explicit secrets: %s", strings.Join(missing, ", "))
	}
	return nil
}

func LogConfig(logger *zap.Logger) {
	configLock.RLock()
	defer configLock.RUnlock()

	redacted := *config
	redacted.Security.JWTSecret = "[REDACTED]"
	redacted.Security.JWTRefreshSecret = "[REDACTED]"
	redacted.Security.EncryptionKey = "[REDACTED]"
	redacted.Database.Password = "[REDACTED]"
	redacted.Database.URL = redactURL(redacted.Database.URL)

	logger.Info("Application configuration",
		zap.String("environment", redacted.Environment),
		zap.String("port", redacted.Server.Port),
		zap.Duration("read_timeout", redacted.Server.ReadTimeout),
		zap.Duration("write_timeout", redacted.Server.WriteTimeout),
		zap.String("database_url", redacted.Database.URL),
		zap.String("database_host", redacted.Database.Host),
		zap.String("database_name", redacted.Database.Name),
		zap.Bool("redis_enabled", redacted.Redis.Addr != ""),
		zap.String("generation_model", redacted.Generation.Model),
		zap.Bool("generation_configured", redacted.Generation.APIKey != ""),
		zap.Bool("docusign_configured", redacted.DocuSign.ClientID != ""),
		zap.String("docusign_auth_server", redacted.DocuSign.AuthServer),
		zap.Bool("render_allow_raw_html", redacted.Render.AllowRawHTML),
	)
}

// redactURL hides the userinfo part of a connection string.
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "[REDACTED]" + raw[at:]
}
