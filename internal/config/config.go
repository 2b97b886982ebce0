package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | mysql
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Storage struct {
		Backend string `yaml:"backend"` // s3 | local
		Local   struct {
			Root string `yaml:"root"`
		} `yaml:"local"`
		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"storage"`

	OpenAI struct {
		APIKey     string  `yaml:"apiKey"`
		Model      string  `yaml:"model"`
		Enabled    bool    `yaml:"enabled"`
		TimeoutSec float64 `yaml:"timeoutSeconds"`
	} `yaml:"openai"`

	Analysis struct {
		Temperature         *float32 `yaml:"temperature"`
		MaxTokens           int      `yaml:"maxTokens"`
		ConfidenceThreshold float64  `yaml:"confidenceThreshold"`
		Workers             int      `yaml:"workers"`
		QueueSize           int      `yaml:"queueSize"`
		FallbackEnabled     bool     `yaml:"fallbackEnabled"`
	} `yaml:"analysis"`

	Auth struct {
		// map of caller name -> API key
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load baca file config.yaml, .env diload dulu kalau ada
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.Local.Root == "" {
		c.Storage.Local.Root = "data/diagrams"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o"
	}
	if c.OpenAI.TimeoutSec <= 0 {
		c.OpenAI.TimeoutSec = 30
	}
	// nil means absent; an explicit 0 (deterministic sampling) is kept
	if c.Analysis.Temperature == nil {
		t := float32(0.2)
		c.Analysis.Temperature = &t
	}
	if c.Analysis.MaxTokens == 0 {
		c.Analysis.MaxTokens = 4000
	}
	if c.Analysis.ConfidenceThreshold == 0 {
		c.Analysis.ConfidenceThreshold = 0.7
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = 2
	}
	if c.Analysis.QueueSize <= 0 {
		c.Analysis.QueueSize = 100
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 60
	}
	if c.RateLimit.RefillRate <= 0 {
		c.RateLimit.RefillRate = 1
	}
}

// applyEnv: secrets menang dari environment
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Storage.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Storage.Minio.SecretKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// PostgresDSN untuk lib/pq
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MySQLDSN untuk go-sql-driver/mysql
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
