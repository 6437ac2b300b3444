package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress     = "localhost:8080"
	defaultLogLevel          = "info"
	defaultEnv               = "local"
	defaultConfigDir         = ".storekeeper"
	defaultDataFile          = "store.db"
	defaultStateFile         = "state.json"
	defaultPageSize          = 20
	defaultMaxPageSize       = 100
	defaultSyncPageSize      = 500
	defaultHTTPTimeout       = 30
	defaultLowStockThreshold = 5
	defaultBarcodeStart      = 1000000
)

type Config struct {
	Env               string `mapstructure:"app_env"`
	ServerAddress     string `mapstructure:"server_address"`
	EnableTLS         bool   `mapstructure:"enable_tls"`
	LogLevel          string `mapstructure:"log_level"`
	ConfigDir         string `mapstructure:"config_dir"`
	DataPath          string `mapstructure:"data_path"`
	StatePath         string `mapstructure:"state_path"`
	Offline           bool   `mapstructure:"offline"`
	PageSize          int    `mapstructure:"page_size"`
	MaxPageSize       int    `mapstructure:"max_page_size"`
	SyncPageSize      int    `mapstructure:"sync_page_size"`
	HTTPTimeout       int    `mapstructure:"http_timeout_seconds"`
	LowStockThreshold int    `mapstructure:"low_stock_threshold"`
	BarcodeStart      int64  `mapstructure:"barcode_start"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("создание директории конфигурации: %w", err)
	}

	config := &Config{
		Env:               v.GetString("APP_ENV"),
		ServerAddress:     v.GetString("SERVER_ADDRESS"),
		EnableTLS:         v.GetBool("ENABLE_TLS"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		ConfigDir:         configDir,
		DataPath:          inDir(configDir, v.GetString("DATA_PATH")),
		StatePath:         inDir(configDir, v.GetString("STATE_PATH")),
		Offline:           v.GetBool("OFFLINE"),
		PageSize:          v.GetInt("PAGE_SIZE"),
		MaxPageSize:       v.GetInt("MAX_PAGE_SIZE"),
		SyncPageSize:      v.GetInt("SYNC_PAGE_SIZE"),
		HTTPTimeout:       v.GetInt("HTTP_TIMEOUT_SECONDS"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		BarcodeStart:      v.GetInt64("BARCODE_START"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("DATA_PATH", defaultDataFile)
	v.SetDefault("STATE_PATH", defaultStateFile)
	v.SetDefault("OFFLINE", false)
	v.SetDefault("PAGE_SIZE", defaultPageSize)
	v.SetDefault("MAX_PAGE_SIZE", defaultMaxPageSize)
	v.SetDefault("SYNC_PAGE_SIZE", defaultSyncPageSize)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", defaultHTTPTimeout)
	v.SetDefault("LOW_STOCK_THRESHOLD", defaultLowStockThreshold)
	v.SetDefault("BARCODE_START", defaultBarcodeStart)
}

// inDir оставляет абсолютный путь как есть, относительный кладёт в директорию конфигурации.
func inDir(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size должен быть положительным")
	}
	if c.MaxPageSize < c.PageSize {
		return fmt.Errorf("max_page_size не может быть меньше page_size")
	}
	if c.SyncPageSize <= 0 {
		return fmt.Errorf("sync_page_size должен быть положительным")
	}
	return nil
}

// BaseURL возвращает адрес сервера со схемой.
func (c *Config) BaseURL() string {
	if strings.Contains(c.ServerAddress, "://") {
		return strings.TrimRight(c.ServerAddress, "/")
	}
	scheme := "http"
	if c.EnableTLS {
		scheme = "https"
	}
	return scheme + "://" + c.ServerAddress
}

// Timeout возвращает таймаут HTTP-запросов.
func (c *Config) Timeout() time.Duration {
	if c.HTTPTimeout <= 0 {
		return defaultHTTPTimeout * time.Second
	}
	return time.Duration(c.HTTPTimeout) * time.Second
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
