package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"baseURL"`
		Token   string `yaml:"token"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	User struct {
		ID string `yaml:"id"`
	} `yaml:"user"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOptional is Load with a missing file treated as empty config.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	override(&c.API.BaseURL, "QUIZ_API_URL")
	override(&c.API.Token, "QUIZ_API_TOKEN")
	override(&c.User.ID, "QUIZ_USER_ID")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Postgres.URL, "DATABASE_URL")
	override(&c.Log.Level, "LOG_LEVEL")
	override(&c.Log.Format, "LOG_FORMAT")
}

func override(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
