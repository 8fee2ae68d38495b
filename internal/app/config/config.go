package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceHost string
	ServicePort int
	SiteTitle   string
	LogLevel    string
	CORSOrigins []string

	DB      DBConfig
	Session SessionConfig
	Storage StorageConfig
	Redis   RedisConfig
	MinIO   MinIOConfig
}

type DBConfig struct {
	// Driver is "postgres" (DSN from env) or "sqlite" (Path).
	Driver string
	Path   string
}

type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type StorageConfig struct {
	// Backend is "minio" or "local".
	Backend   string
	UploadDir string
	MaxSize   int64
}

type RedisConfig struct {
	Host        string
	Password    string
	Port        int
	User        string
	DB          int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

const (
	envRedisHost = "REDIS_HOST"
	envRedisPort = "REDIS_PORT"
	envRedisUser = "REDIS_USER"
	envRedisPass = "REDIS_PASSWORD"

	envMinIOEndpoint  = "MINIO_ENDPOINT"
	envMinIOAccessKey = "MINIO_ACCESS_KEY"
	envMinIOSecretKey = "MINIO_SECRET_KEY"
	envMinIOBucket    = "MINIO_BUCKET"
	envMinIOUseSSL    = "MINIO_USE_SSL"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ServiceHost", "0.0.0.0")
	v.SetDefault("ServicePort", 8000)
	v.SetDefault("SiteTitle", "Administration ASDM")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("CORSOrigins", []string{"http://localhost:3000"})
	v.SetDefault("DB.Driver", "postgres")
	v.SetDefault("DB.Path", "asdm.db")
	v.SetDefault("Session.CookieName", "sessionid")
	v.SetDefault("Session.TTL", "336h")
	v.SetDefault("Storage.Backend", "minio")
	v.SetDefault("Storage.UploadDir", "media")
	v.SetDefault("Storage.MaxSize", 10<<20)
}

func NewConfig() (*Config, error) {
	var err error

	configName := "config"
	_ = godotenv.Load()
	if os.Getenv("CONFIG_NAME") != "" {
		configName = os.Getenv("CONFIG_NAME")
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configName)
	v.SetConfigType("toml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	err = v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}

	if err = cfg.loadEnv(); err != nil {
		return nil, err
	}

	log.Info("config parsed")

	return cfg, nil
}

// loadEnv fills credentials that never live in the config file.
func (cfg *Config) loadEnv() error {
	var err error

	cfg.Redis.Host = os.Getenv(envRedisHost)
	if port := os.Getenv(envRedisPort); port != "" {
		cfg.Redis.Port, err = strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("redis port must be int value: %w", err)
		}
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	cfg.Redis.Password = os.Getenv(envRedisPass)
	cfg.Redis.User = os.Getenv(envRedisUser)
	cfg.Redis.DialTimeout = 10 * time.Second
	cfg.Redis.ReadTimeout = 10 * time.Second

	cfg.MinIO.Endpoint = os.Getenv(envMinIOEndpoint)
	cfg.MinIO.AccessKey = os.Getenv(envMinIOAccessKey)
	cfg.MinIO.SecretKey = os.Getenv(envMinIOSecretKey)
	cfg.MinIO.Bucket = os.Getenv(envMinIOBucket)
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "asdm-documents"
	}
	if ssl := os.Getenv(envMinIOUseSSL); ssl != "" {
		cfg.MinIO.UseSSL, err = strconv.ParseBool(ssl)
		if err != nil {
			return fmt.Errorf("minio use ssl must be bool value: %w", err)
		}
	}
	return nil
}

// Level parses LogLevel, falling back to info.
func (cfg *Config) Level() log.Level {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
