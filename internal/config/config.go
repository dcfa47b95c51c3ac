// Package config loads the lpad settings file. Built-in defaults are merged
// with the user's TOML file, an optional lpad.env file next to it and
// LPAD_* environment variables, in increasing order of precedence.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed default.toml
var defaultConfigData string

// Config holds the effective settings.
type Config struct {
	RegistryFile    string                            `toml:"registry_file"`
	HistoryFile     string                            `toml:"history_file"`
	RecordHistory   bool                              `toml:"record_history"`
	LogLevel        string                            `toml:"log_level"`
	LogFile         string                            `toml:"log_file"`
	Picker          string                            `toml:"picker"`
	AllowConcurrent bool                              `toml:"allow_concurrent"`
	ChunkSize       int                               `toml:"chunk_size"`
	Pickers         map[string]map[string]interface{} `toml:"pickers"`

	// Source is the settings file that was read, empty if none existed.
	Source string `toml:"-"`
}

// ConfigFile mirrors Config for decoding user files; nil means unset.
type ConfigFile struct {
	RegistryFile    *string                           `toml:"registry_file"`
	HistoryFile     *string                           `toml:"history_file"`
	RecordHistory   *bool                             `toml:"record_history"`
	LogLevel        *string                           `toml:"log_level"`
	LogFile         *string                           `toml:"log_file"`
	Picker          *string                           `toml:"picker"`
	AllowConcurrent *bool                             `toml:"allow_concurrent"`
	ChunkSize       *int                              `toml:"chunk_size"`
	Pickers         map[string]map[string]interface{} `toml:"pickers"`
}

// Environment variables that override the settings file.
const (
	EnvRegistry = "LPAD_REGISTRY"
	EnvHistory  = "LPAD_HISTORY"
	EnvLogLevel = "LPAD_LOG_LEVEL"
	EnvLogFile  = "LPAD_LOG_FILE"
	EnvPicker   = "LPAD_PICKER"

	EnvAllowConcurrent = "LPAD_ALLOW_CONCURRENT"
)

// EnvFileName is the dotenv file read from the config directory.
const EnvFileName = "lpad.env"

// ConfigDir returns $XDG_CONFIG_HOME/lpad, or ~/.config/lpad.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lpad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lpad")
}

// DataDir returns $XDG_DATA_HOME/lpad, or ~/.local/share/lpad.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "lpad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "lpad")
}

// DefaultPath returns the location of the user settings file.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Defaults returns the built-in settings with standard paths filled in.
func Defaults() *Config {
	cfg, err := loadDefaultConfig()
	if err != nil {
		// default.toml is embedded; failing to decode it is a build defect.
		panic(fmt.Sprintf("invalid embedded default config: %v", err))
	}
	cfg.fillPaths()
	return cfg
}

// Load reads the settings file at path (DefaultPath if empty) and applies
// the dotenv file and environment overrides. If the user file cannot be
// decoded the defaults are returned together with the error, so callers can
// warn and continue.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg, err := loadDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	var loadErr error
	if _, statErr := os.Stat(path); statErr == nil {
		userCfg, err := loadConfigFromFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to load config %s: %w", path, err)
		} else {
			cfg = mergeConfigs(cfg, userCfg)
			cfg.Source = path
		}
	}

	dotenv := map[string]string{}
	envPath := filepath.Join(filepath.Dir(path), EnvFileName)
	if _, statErr := os.Stat(envPath); statErr == nil {
		values, err := godotenv.Read(envPath)
		if err != nil && loadErr == nil {
			loadErr = fmt.Errorf("failed to read %s: %w", envPath, err)
		}
		if values != nil {
			dotenv = values
		}
	}

	cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})
	cfg.fillPaths()

	return cfg, loadErr
}

// PickerOptions returns the option table of the named picker backend.
func (c *Config) PickerOptions(name string) map[string]interface{} {
	if opts, ok := c.Pickers[name]; ok {
		return opts
	}
	return map[string]interface{}{}
}

// InitUserConfig writes the default settings to path (DefaultPath if empty).
// An existing file is only replaced when force is set.
func InitUserConfig(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigData), 0o644); err != nil {
		return path, fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func loadDefaultConfig() (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(defaultConfigData, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadConfigFromFile(path string) (*ConfigFile, error) {
	var cfg ConfigFile
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs overlays the user file on the defaults. Picker tables merge
// key by key.
func mergeConfigs(defaultCfg *Config, userCfg *ConfigFile) *Config {
	merged := *defaultCfg

	if userCfg.RegistryFile != nil {
		merged.RegistryFile = *userCfg.RegistryFile
	}
	if userCfg.HistoryFile != nil {
		merged.HistoryFile = *userCfg.HistoryFile
	}
	if userCfg.RecordHistory != nil {
		merged.RecordHistory = *userCfg.RecordHistory
	}
	if userCfg.LogLevel != nil && *userCfg.LogLevel != "" {
		merged.LogLevel = *userCfg.LogLevel
	}
	if userCfg.LogFile != nil {
		merged.LogFile = *userCfg.LogFile
	}
	if userCfg.Picker != nil && *userCfg.Picker != "" {
		merged.Picker = *userCfg.Picker
	}
	if userCfg.AllowConcurrent != nil {
		merged.AllowConcurrent = *userCfg.AllowConcurrent
	}
	if userCfg.ChunkSize != nil && *userCfg.ChunkSize > 0 {
		merged.ChunkSize = *userCfg.ChunkSize
	}

	pickers := make(map[string]map[string]interface{}, len(defaultCfg.Pickers))
	for name, opts := range defaultCfg.Pickers {
		copied := make(map[string]interface{}, len(opts))
		for k, v := range opts {
			copied[k] = v
		}
		pickers[name] = copied
	}
	for name, opts := range userCfg.Pickers {
		if pickers[name] == nil {
			pickers[name] = make(map[string]interface{}, len(opts))
		}
		for k, v := range opts {
			pickers[name][k] = v
		}
	}
	merged.Pickers = pickers

	return &merged
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvRegistry); ok && v != "" {
		c.RegistryFile = v
	}
	if v, ok := lookup(EnvHistory); ok {
		switch strings.ToLower(v) {
		case "off", "false", "0", "no":
			c.RecordHistory = false
		case "":
		default:
			c.HistoryFile = v
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.LogFile = v
	}
	if v, ok := lookup(EnvPicker); ok && v != "" {
		c.Picker = v
	}
	if v, ok := lookup(EnvAllowConcurrent); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowConcurrent = b
		}
	}
}

func (c *Config) fillPaths() {
	if c.RegistryFile == "" {
		c.RegistryFile = filepath.Join(ConfigDir(), "apps.yml")
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(DataDir(), "history.db")
	}
	c.RegistryFile = expandHome(c.RegistryFile)
	c.HistoryFile = expandHome(c.HistoryFile)
	c.LogFile = expandHome(c.LogFile)
	if c.ChunkSize <= 0 {
		c.ChunkSize = 4096
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
