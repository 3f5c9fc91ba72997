package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	SQLitePath             string
	RedisURL               string
	NATSURL                string
	EventChannel           string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AggregateCacheTTL      time.Duration
	InferenceBaseURL       string
	InferenceAPIKey        string
	InferenceTimeout       time.Duration
	ChatModels             []string
	CodeModels             []string
	InsightModel           string
	RegistryStrict         bool
	RetrievalURL           string
	ReferenceMaxBytes      int64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CODARIQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Codariq API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("sqlite.path", "codariq.db")
	v.SetDefault("event.channel", "codariq")
	v.SetDefault("cloudinary.folder", "codariq/artifacts")
	v.SetDefault("aggregate.cache_ttl", "5m")
	v.SetDefault("inference.base_url", "http://localhost:11434/v1")
	v.SetDefault("inference.timeout", "90s")
	v.SetDefault("models.chat", "mistral,deepseek-r1")
	v.SetDefault("models.code", "codellama,deepseek-coder")
	v.SetDefault("models.insight", "mistral")
	v.SetDefault("registry.strict", false)
	v.SetDefault("reference.max_bytes", 1<<20)

	ttl, err := time.ParseDuration(v.GetString("aggregate.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid aggregate cache ttl: %w", err)
	}

	inferenceTimeout, err := time.ParseDuration(v.GetString("inference.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid inference timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		SQLitePath:             v.GetString("sqlite.path"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannel:           v.GetString("event.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AggregateCacheTTL:      ttl,
		InferenceBaseURL:       v.GetString("inference.base_url"),
		InferenceAPIKey:        v.GetString("inference.api_key"),
		InferenceTimeout:       inferenceTimeout,
		ChatModels:             splitModels(v.GetString("models.chat")),
		CodeModels:             splitModels(v.GetString("models.code")),
		InsightModel:           v.GetString("models.insight"),
		RegistryStrict:         v.GetBool("registry.strict"),
		RetrievalURL:           v.GetString("retrieval.url"),
		ReferenceMaxBytes:      v.GetInt64("reference.max_bytes"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if len(cfg.ChatModels) == 0 || len(cfg.CodeModels) == 0 {
		return Config{}, fmt.Errorf("at least one chat and one code model must be configured")
	}

	if cfg.ReferenceMaxBytes <= 0 {
		cfg.ReferenceMaxBytes = 1 << 20
	}

	return cfg, nil
}

func splitModels(raw string) []string {
	parts := strings.Split(raw, ",")
	models := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			models = append(models, trimmed)
		}
	}
	return models
}
