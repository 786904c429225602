package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ImporterConfig holds the tunables for the activity file importer.
//
// A snapshot of this value is taken once per import run, so a run never
// observes a mid-flight reload.
type ImporterConfig struct {
	BatchSize   int    `mapstructure:"batchSize"`
	ErrorLogCap int    `mapstructure:"errorLogCap"`
	FilePattern string `mapstructure:"filePattern"`
}

func DefaultImporterConfig() ImporterConfig {
	return ImporterConfig{
		BatchSize:   5000,
		ErrorLogCap: 10,
		FilePattern: "activities_*.csv",
	}
}

type ImporterConfigHolder struct {
	current atomic.Value // holds ImporterConfig
}

func NewImporterConfigHolder() (*ImporterConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("importer")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/moniepoint-analytics")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultImporterConfig()
	v.SetDefault("importer.batchSize", defaults.BatchSize)
	v.SetDefault("importer.errorLogCap", defaults.ErrorLogCap)
	v.SetDefault("importer.filePattern", defaults.FilePattern)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg ImporterConfig
	if err := v.UnmarshalKey("importer", &cfg); err != nil {
		return nil, err
	}
	if err := validateImporterConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ImporterConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ImporterConfig
		if err := v.UnmarshalKey("importer", &updated); err != nil {
			log.Printf("[importer-config] reload failed: %v", err)
			return
		}
		if err := validateImporterConfig(updated); err != nil {
			log.Printf("[importer-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[importer-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ImporterConfigHolder) Get() ImporterConfig {
	return h.current.Load().(ImporterConfig)
}

func validateImporterConfig(cfg ImporterConfig) error {
	if cfg.BatchSize <= 0 {
		return errors.New("importer.batchSize must be positive")
	}
	if cfg.ErrorLogCap < 0 {
		return errors.New("importer.errorLogCap cannot be negative")
	}
	if strings.TrimSpace(cfg.FilePattern) == "" {
		return errors.New("importer.filePattern cannot be empty")
	}
	return nil
}
