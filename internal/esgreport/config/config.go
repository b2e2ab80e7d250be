// Конфигурация сервиса редактора отчетов.
// Значения читаются из необязательного YAML файла (CONFIG_FILE), затем перекрываются переменными окружения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения по тегам env.
//   - Необязательный YAML файл с теми же параметрами.
//   - Маскировка секретных значений (пароль в строке подключения) в журнале.
//   - Значения по умолчанию и ограничения для параметров редактора и автосохранения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPAddr        = ":8080"
	DefaultMetricsAddr     = ":2112"
	DefaultHistoryCapacity = 50
	DefaultDebounceMs      = 300
	DefaultIdleMinutes     = 30
	DefaultAutosave        = "@every 1m"
	DefaultAutoVersions    = 20
	DefaultDraftsTTLHours  = 72
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_URL" yaml:"database_url"`

	HTTPAddr    string `env:"HTTP_ADDR" yaml:"http_addr"`
	MetricsAddr string `env:"METRICS_ADDR" yaml:"metrics_addr"`

	FrontFilesPath string `env:"FRONT_PATH" yaml:"front_path"`

	HistoryCapacity   int `env:"HISTORY_CAPACITY" yaml:"history_capacity"`
	ContentDebounceMs int `env:"CONTENT_DEBOUNCE_MS" yaml:"content_debounce_ms"`

	SessionIdleMinutes int    `env:"SESSION_IDLE_MINUTES" yaml:"session_idle_minutes"`
	AutosaveSchedule   string `env:"AUTOSAVE_SCHEDULE" yaml:"autosave_schedule"`
	AutoVersionsKeep   int    `env:"AUTO_VERSIONS_KEEP" yaml:"auto_versions_keep"`

	DraftsDBPath   string `env:"DRAFTS_DB_PATH" yaml:"drafts_db_path"`
	DraftsTTLHours int    `env:"DRAFTS_TTL_HOURS" yaml:"drafts_ttl_hours"`

	Debug bool `env:"DEBUG" yaml:"debug"`
}

// ReadConfig загружает конфигурацию. Без DATABASE_URL сервис не запускается.
func ReadConfig() *Config {
	config := &Config{}

	if path := GetEnv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			slog.Error("Read config file", "path", path, "err", err)
			os.Exit(1)
		}
	}

	envConfig("env", config)

	if config.DatabaseDSN == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	config.applyDefaults()
	return config
}

// loadFile читает YAML файл конфигурации поверх переданной структуры.
func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.ContentDebounceMs <= 0 || c.ContentDebounceMs > 10000 {
		c.ContentDebounceMs = DefaultDebounceMs
	}
	if c.SessionIdleMinutes <= 0 {
		c.SessionIdleMinutes = DefaultIdleMinutes
	}
	if c.AutosaveSchedule == "" {
		c.AutosaveSchedule = DefaultAutosave
	}
	if c.AutoVersionsKeep <= 0 {
		c.AutoVersionsKeep = DefaultAutoVersions
	}
	if c.DraftsDBPath == "" {
		c.DraftsDBPath = "drafts.db"
	}
	if c.DraftsTTLHours <= 0 {
		c.DraftsTTLHours = DefaultDraftsTTLHours
	}
}

func (c *Config) ContentDebounce() time.Duration {
	return time.Duration(c.ContentDebounceMs) * time.Millisecond
}

func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) DraftsTTL() time.Duration {
	return time.Duration(c.DraftsTTLHours) * time.Hour
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		value := GetEnv(fEnvTag)
		if value == "" {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", maskValue(fName, value)),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(value)
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

// maskValue прячет пароль в строке подключения и значения секретных полей.
func maskValue(field, value string) string {
	lower := strings.ToLower(field)
	if strings.Contains(lower, "dsn") {
		if u, err := url.Parse(value); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				return u.String()
			}
		}
		return value
	}
	if strings.Contains(lower, "pass") || strings.Contains(lower, "secret") || strings.Contains(lower, "token") {
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
	}
	return value
}
