// Package config provides configuration management for the slide editor
// backend. It supports loading, saving, and runtime updates of the JSON
// configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Config holds all system configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Import  ImportConfig  `json:"import"`
	Storage StorageConfig `json:"storage"`
	Admin   AdminConfig   `json:"admin"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int `json:"port"`
	MaxUploadSizeMB int `json:"max_upload_size_mb"`
}

// ImportConfig tunes the presentation importer.
type ImportConfig struct {
	// ImportImages controls whether embedded pictures are extracted.
	ImportImages bool `json:"import_images"`

	// DefaultAspect is the canvas assumed for packages that omit a
	// slide-size declaration: "16:9" or "4:3".
	DefaultAspect string `json:"default_aspect"`

	// ThumbnailWidth is the preview thumbnail width in pixels. Zero
	// disables thumbnail rendering.
	ThumbnailWidth int `json:"thumbnail_width"`
}

// StorageConfig holds database configuration.
type StorageConfig struct {
	DBPath string `json:"db_path"`
}

// AdminConfig holds admin authentication configuration.
type AdminConfig struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// ConfigManager manages loading, saving, and updating configuration.
type ConfigManager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewConfigManager creates a ConfigManager for the given config file path.
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{configPath: configPath}
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			MaxUploadSizeMB: 100,
		},
		Import: ImportConfig{
			ImportImages:   true,
			DefaultAspect:  "16:9",
			ThumbnailWidth: 320,
		},
		Storage: StorageConfig{
			DBPath: "./data/slideflow.db",
		},
		Admin: AdminConfig{
			Username: "admin",
		},
	}
}

// Load reads the config file from disk. A missing file is created with
// defaults.
func (cm *ConfigManager) Load() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cm.config = DefaultConfig()
			return cm.saveLocked()
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(&cfg)
	cm.config = &cfg
	return nil
}

// Save writes the current config to disk.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.saveLocked()
}

// saveLocked writes config to disk. Caller must hold at least a read lock.
func (cm *ConfigManager) saveLocked() error {
	if cm.config == nil {
		return errors.New("no config loaded")
	}
	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.config == nil {
		return nil
	}
	c := *cm.config
	return &c
}

// Update applies partial updates to the configuration and saves to disk.
// Supported keys: "server.port", "server.max_upload_size_mb",
// "import.import_images", "import.default_aspect", "import.thumbnail_width",
// "storage.db_path", "admin.username", "admin.password_hash".
func (cm *ConfigManager) Update(updates map[string]interface{}) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.config == nil {
		cm.config = DefaultConfig()
	}

	for key, val := range updates {
		if err := cm.applyUpdate(key, val); err != nil {
			return fmt.Errorf("update key %q: %w", key, err)
		}
	}
	return cm.saveLocked()
}

func (cm *ConfigManager) applyUpdate(key string, val interface{}) error {
	switch key {
	case "server.port":
		n, err := toInt(val)
		if err != nil {
			return err
		}
		if n < 1 || n > 65535 {
			return fmt.Errorf("port out of range: %d", n)
		}
		cm.config.Server.Port = n
	case "server.max_upload_size_mb":
		n, err := toInt(val)
		if err != nil {
			return err
		}
		if n < 1 {
			return fmt.Errorf("upload size must be positive: %d", n)
		}
		cm.config.Server.MaxUploadSizeMB = n
	case "import.import_images":
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", val)
		}
		cm.config.Import.ImportImages = b
	case "import.default_aspect":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		if s != "16:9" && s != "4:3" {
			return fmt.Errorf("unknown aspect %q", s)
		}
		cm.config.Import.DefaultAspect = s
	case "import.thumbnail_width":
		n, err := toInt(val)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("thumbnail width must not be negative: %d", n)
		}
		cm.config.Import.ThumbnailWidth = n
	case "storage.db_path":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		cm.config.Storage.DBPath = s
	case "admin.username":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		cm.config.Admin.Username = s
	case "admin.password_hash":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		cm.config.Admin.PasswordHash = s
	default:
		return fmt.Errorf("unknown config key")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.MaxUploadSizeMB == 0 {
		cfg.Server.MaxUploadSizeMB = defaults.Server.MaxUploadSizeMB
	}
	if cfg.Import.DefaultAspect == "" {
		cfg.Import.DefaultAspect = defaults.Import.DefaultAspect
	}
	if cfg.Import.ThumbnailWidth == 0 {
		cfg.Import.ThumbnailWidth = defaults.Import.ThumbnailWidth
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = defaults.Storage.DBPath
	}
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = defaults.Admin.Username
	}
}

// toInt converts a JSON-decoded numeric value to int.
func toInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", val)
	}
}
