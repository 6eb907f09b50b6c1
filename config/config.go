// Package config provides configuration management for Revelation Indicator.
// It handles loading, saving, and watching the applet settings and notifies
// registered monitors when a key changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/yllada/revelation-indicator/common"
	"gopkg.in/yaml.v3"
)

// Configuration keys.
const (
	KeyFile             = "file"
	KeyAutolock         = "autolock"
	KeyAutolockTimeout  = "autolock_timeout"
	KeyRememberPassword = "remember_password"
)

// Keys lists every configuration key in display order.
var Keys = []string{KeyFile, KeyAutolock, KeyAutolockTimeout, KeyRememberPassword}

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// File is the data file opened by Unlock.
	File string `mapstructure:"file" yaml:"file"`
	// Autolock locks the session after AutolockTimeout minutes of inactivity.
	Autolock bool `mapstructure:"autolock" yaml:"autolock"`
	// AutolockTimeout is the inactivity period in minutes.
	AutolockTimeout int `mapstructure:"autolock_timeout" yaml:"autolock_timeout"`
	// RememberPassword caches the file password in the system keyring.
	RememberPassword bool `mapstructure:"remember_password" yaml:"remember_password"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		File:             "",
		Autolock:         true,
		AutolockTimeout:  common.DefaultAutolockTimeout,
		RememberPassword: false,
	}
}

// validate clamps values into their accepted ranges.
func (c *Config) validate() {
	if c.AutolockTimeout < common.MinAutolockTimeout {
		c.AutolockTimeout = common.MinAutolockTimeout
	}
	if c.AutolockTimeout > common.MaxAutolockTimeout {
		c.AutolockTimeout = common.MaxAutolockTimeout
	}
}

// changed returns the keys whose values differ between c and other.
func (c Config) changed(other Config) []string {
	var keys []string
	if c.File != other.File {
		keys = append(keys, KeyFile)
	}
	if c.Autolock != other.Autolock {
		keys = append(keys, KeyAutolock)
	}
	if c.AutolockTimeout != other.AutolockTimeout {
		keys = append(keys, KeyAutolockTimeout)
	}
	if c.RememberPassword != other.RememberPassword {
		keys = append(keys, KeyRememberPassword)
	}
	return keys
}

// Registry holds the live configuration. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	v        *viper.Viper
	path     string
	cfg      Config
	monitors map[string][]func()
}

// Load loads the configuration from the user's config directory.
// If the file doesn't exist, it creates one with default values.
func Load() (*Registry, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return nil, common.WrapError(common.ErrConfigLoad, err.Error())
	}
	return LoadFile(filepath.Join(dir, common.ConfigFileName))
}

// NewRegistry returns a registry for path holding the default values,
// without reading or writing the file.
func NewRegistry(path string) *Registry {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetDefault(KeyFile, defaults.File)
	v.SetDefault(KeyAutolock, defaults.Autolock)
	v.SetDefault(KeyAutolockTimeout, defaults.AutolockTimeout)
	v.SetDefault(KeyRememberPassword, defaults.RememberPassword)

	return &Registry{
		v:        v,
		path:     path,
		cfg:      *defaults,
		monitors: make(map[string][]func()),
	}
}

// LoadFile loads the configuration stored at path.
// If the file doesn't exist, it creates one with default values.
func LoadFile(path string) (*Registry, error) {
	r := NewRegistry(path)

	if !common.FileExists(path) {
		if err := r.save(); err != nil {
			return r, err
		}
		return r, nil
	}

	if err := r.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}
	cfg, err := r.decode()
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	return r, nil
}

func (r *Registry) decode() (Config, error) {
	var cfg Config
	if err := r.v.Unmarshal(&cfg); err != nil {
		return cfg, common.WrapError(common.ErrConfigLoad, err.Error())
	}
	cfg.validate()
	return cfg, nil
}

// Path returns the configuration file path.
func (r *Registry) Path() string {
	return r.path
}

// Snapshot returns a copy of the current configuration.
func (r *Registry) Snapshot() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// File returns the configured data file, or "".
func (r *Registry) File() string {
	return r.Snapshot().File
}

// Autolock reports whether autolock is enabled.
func (r *Registry) Autolock() bool {
	return r.Snapshot().Autolock
}

// AutolockTimeout returns the autolock period in minutes.
func (r *Registry) AutolockTimeout() int {
	return r.Snapshot().AutolockTimeout
}

// RememberPassword reports whether passwords are cached in the keyring.
func (r *Registry) RememberPassword() bool {
	return r.Snapshot().RememberPassword
}

// Get returns the value stored under key.
func (r *Registry) Get(key string) (any, error) {
	cfg := r.Snapshot()
	switch key {
	case KeyFile:
		return cfg.File, nil
	case KeyAutolock:
		return cfg.Autolock, nil
	case KeyAutolockTimeout:
		return cfg.AutolockTimeout, nil
	case KeyRememberPassword:
		return cfg.RememberPassword, nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrUnknownKey, key)
}

// Set stores value under key, persists the file and notifies the key's
// monitors. Setting a key to its current value is a no-op.
func (r *Registry) Set(key string, value any) error {
	r.mu.Lock()
	next := r.cfg
	if err := assign(&next, key, value); err != nil {
		r.mu.Unlock()
		return err
	}
	next.validate()

	changed := r.cfg.changed(next)
	if len(changed) == 0 {
		r.mu.Unlock()
		return nil
	}
	prev := r.cfg
	r.cfg = next
	if err := r.save(); err != nil {
		r.cfg = prev
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.notify(changed)
	return nil
}

func assign(cfg *Config, key string, value any) error {
	switch key {
	case KeyFile:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants a string, got %T", common.ErrInvalidType, key, value)
		}
		cfg.File = s
	case KeyAutolock, KeyRememberPassword:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a bool, got %T", common.ErrInvalidType, key, value)
		}
		if key == KeyAutolock {
			cfg.Autolock = b
		} else {
			cfg.RememberPassword = b
		}
	case KeyAutolockTimeout:
		switch n := value.(type) {
		case int:
			cfg.AutolockTimeout = n
		case int64:
			cfg.AutolockTimeout = int(n)
		case float64:
			cfg.AutolockTimeout = int(n)
		default:
			return fmt.Errorf("%w: %s wants a number, got %T", common.ErrInvalidType, key, value)
		}
	default:
		return fmt.Errorf("%w: %s", common.ErrUnknownKey, key)
	}
	return nil
}

// Monitor registers fn to be called after key changes, either through Set
// or an external edit of the file picked up by Watch.
func (r *Registry) Monitor(key string, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monitors[key] = append(r.monitors[key], fn)
}

func (r *Registry) notify(keys []string) {
	r.mu.Lock()
	var fns []func()
	for _, key := range keys {
		fns = append(fns, r.monitors[key]...)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Watch starts watching the configuration file for external edits.
func (r *Registry) Watch() {
	r.v.OnConfigChange(func(ev fsnotify.Event) {
		common.LogDebug("Configuration file changed: %s", ev.Name)
		r.reload()
	})
	r.v.WatchConfig()
}

// reload adopts the values viper read from disk and notifies the monitors
// of the keys that differ.
func (r *Registry) reload() {
	r.mu.Lock()
	next, err := r.decode()
	if err != nil {
		r.mu.Unlock()
		common.LogWarn("Ignoring invalid configuration: %v", err)
		return
	}
	changed := r.cfg.changed(next)
	r.cfg = next
	r.mu.Unlock()

	if len(changed) > 0 {
		r.notify(changed)
	}
}

// save writes the configuration to the file. The caller holds r.mu.
func (r *Registry) save() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return common.WrapError(common.ErrConfigSave, err.Error())
	}

	data, err := yaml.Marshal(&r.cfg)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0600); err != nil {
		return common.WrapError(common.ErrConfigSave, err.Error())
	}
	return nil
}
