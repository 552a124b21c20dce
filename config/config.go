// Initializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RecordStore RecordStoreConfig `mapstructure:"record_store"`
	Session     SessionConfig     `mapstructure:"session"`
	QR          QRConfig          `mapstructure:"qr"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

type ServerConfig struct {
	AppVersion  string        `mapstructure:"appVersion"`
	Host        string        `mapstructure:"host" validate:"required"`
	Port        string        `mapstructure:"port" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Env         string        `mapstructure:"environment"`
	Mode        string        `mapstructure:"mode"`
}

// StoreConfig selects the storage adapter: "postgres" for the direct SQL
// backend, "remote" for the hosted record-store API.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RecordStoreConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AdminToken   string        `mapstructure:"admin_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxConflicts int           `mapstructure:"max_conflicts"`
}

type SessionConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type QRConfig struct {
	SigningSecret string        `mapstructure:"signing_secret"`
	PayloadTTL    time.Duration `mapstructure:"payload_ttl"`
	PNGSize       int           `mapstructure:"png_size"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type WorkerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
