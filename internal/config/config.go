package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type UserConfig struct {
	APIKey  string `yaml:"apiKey"`
	ID      string `yaml:"id"`
	Email   string `yaml:"email"`
	Premium bool   `yaml:"premium"`
}

type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Log  string `yaml:"log"` // dev | prod
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Engine struct {
		Provider               string `yaml:"provider"` // gemini | openai
		TimeoutSeconds         int    `yaml:"timeoutSeconds"`
		ClassifyTimeoutSeconds int    `yaml:"classifyTimeoutSeconds"`
		Gemini                 struct {
			APIKey string `yaml:"apiKey"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
		OpenAI struct {
			APIKey string `yaml:"apiKey"`
			Model  string `yaml:"model"`
		} `yaml:"openai"`
	} `yaml:"engine"`

	Notify struct {
		Enabled      bool   `yaml:"enabled"`
		ResendAPIKey string `yaml:"resendApiKey"`
		From         string `yaml:"from"`
	} `yaml:"notify"`

	Auth struct {
		Users []UserConfig `yaml:"users"`
	} `yaml:"auth"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Engine.Provider == "" {
		cfg.Engine.Provider = "gemini"
	}
	if cfg.Engine.TimeoutSeconds <= 0 {
		cfg.Engine.TimeoutSeconds = 90
	}
	if cfg.Engine.ClassifyTimeoutSeconds <= 0 {
		cfg.Engine.ClassifyTimeoutSeconds = 20
	}
	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
