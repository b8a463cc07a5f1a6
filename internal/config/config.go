/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "wpuilab/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type EditorConfig struct {
	HistoryLimit   int      `yaml:"history_limit"`
	RegistryFile   string   `yaml:"registry_file"`    // optional YAML catalogue replacing the built-in one
	PasteAsSibling []string `yaml:"paste_as_sibling"` // extra container types that receive pastes next to them
	IDPrefix       string   `yaml:"id_prefix"`
}

type StorageConfig struct {
	BackupsKeep   int `yaml:"backups_keep"`
	RevisionsKeep int `yaml:"revisions_keep"`
}

type RemoteConfig struct {
	DSN       string `yaml:"dsn"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The database password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Storage       StorageConfig `yaml:"storage"`
	Remote        RemoteConfig  `yaml:"remote"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{HistoryLimit: 50},
		Storage:       StorageConfig{BackupsKeep: 10, RevisionsKeep: 20},
		Remote:        RemoteConfig{TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvHistoryLimit  = "WPUI_HISTORY_LIMIT"
	EnvRegistryFile  = "WPUI_REGISTRY_FILE"
	EnvBackupsKeep   = "WPUI_BACKUPS_KEEP"
	EnvRemoteDSN     = "WPUI_PG_DSN"
	EnvRemoteTimeout = "WPUI_PG_TIMEOUT_MS"
	EnvLogLevel      = "WPUI_LOG_LEVEL"
	EnvLogFormat     = "WPUI_LOG_FORMAT"
	EnvLogSource     = "WPUI_LOG_SOURCE"
	EnvLogFile       = "WPUI_LOG_FILE"
	EnvConfigDir     = "WPUI_CONFIG_DIR"
)

// Service/keys for OS keyring.
const (
	keyringService  = "WPUILab"
	keyringPassword = "remote_password"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// SetTokenStore swaps the secret store and returns a function restoring the previous one.
func SetTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

// ConfigPath returns the per-user config file path. WPUI_CONFIG_DIR overrides the directory.
func ConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "WPUILab")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "WPUILab")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "wpuilab")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "wpuilab")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges environment overrides.
// The remote password is loaded from the keyring and returned separately; a missing entry is not an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring unreadable config file", "path", path, "err", err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	secret, err := tokenStore.Get(keyringService, keyringPassword)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithComponent("config").Debug("keyring unavailable", "err", err)
	}
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the remote password into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, secret); err != nil {
			return err
		}
	}
	return nil
}

// ForgetSecret removes the stored remote password.
func ForgetSecret() error {
	err := tokenStore.Delete(keyringService, keyringPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.HistoryLimit > 0 {
		dst.Editor.HistoryLimit = src.Editor.HistoryLimit
	}
	if strings.TrimSpace(src.Editor.RegistryFile) != "" {
		dst.Editor.RegistryFile = strings.TrimSpace(src.Editor.RegistryFile)
	}
	if len(src.Editor.PasteAsSibling) > 0 {
		dst.Editor.PasteAsSibling = append([]string(nil), src.Editor.PasteAsSibling...)
	}
	if src.Editor.IDPrefix != "" {
		dst.Editor.IDPrefix = src.Editor.IDPrefix
	}
	if src.Storage.BackupsKeep > 0 {
		dst.Storage.BackupsKeep = src.Storage.BackupsKeep
	}
	if src.Storage.RevisionsKeep > 0 {
		dst.Storage.RevisionsKeep = src.Storage.RevisionsKeep
	}
	if strings.TrimSpace(src.Remote.DSN) != "" {
		dst.Remote.DSN = strings.TrimSpace(src.Remote.DSN)
	}
	if src.Remote.TimeoutMs != 0 {
		dst.Remote.TimeoutMs = src.Remote.TimeoutMs
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvHistoryLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Editor.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvRegistryFile)); v != "" {
		cfg.Editor.RegistryFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackupsKeep)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Storage.BackupsKeep = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvRemoteDSN)); v != "" {
		cfg.Remote.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRemoteTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Remote.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"editor.history_limit": EnvHistoryLimit,
	"editor.registry_file": EnvRegistryFile,
	"storage.backups_keep": EnvBackupsKeep,
	"remote.dsn":           EnvRemoteDSN,
	"remote.timeout_ms":    EnvRemoteTimeout,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// LogOptions maps the logging section onto logger options.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
