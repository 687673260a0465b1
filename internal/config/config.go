// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete studytutor configuration.
type Config struct {
	Tutor   TutorConfig   `toml:"tutor"`
	Context ContextConfig `toml:"context"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// TutorConfig selects the generation service.
type TutorConfig struct {
	// Provider is "gemini" or "openrouter".
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`
	// RequestTimeoutSecs bounds each attempt. 0 disables the timeout.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
	// FallbackDelayMs is the pause between replayed words.
	FallbackDelayMs int `toml:"fallback_delay_ms"`
}

// ContextConfig holds the default study labels.
type ContextConfig struct {
	Subject string `toml:"subject"`
	Chapter string `toml:"chapter"`
	Topic   string `toml:"topic"`
}

// UIConfig controls the interactive interface.
type UIConfig struct {
	Greeting         bool `toml:"greeting"`
	ScrollDebounceMs int  `toml:"scroll_debounce_ms"`
	BottomThreshold  int  `toml:"bottom_threshold"`
	Markdown         bool `toml:"markdown"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	// Mode is "production" (JSON) or "development" (console).
	Mode string `toml:"mode"`
	File string `toml:"file"`
}

// Supported providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Tutor: TutorConfig{
			Provider:           ProviderGemini,
			Model:              "gemini-2.5-flash",
			RequestTimeoutSecs: 120,
			FallbackDelayMs:    50,
		},
		UI: UIConfig{
			Greeting:         true,
			ScrollDebounceMs: 100,
			BottomThreshold:  1,
			Markdown:         true,
		},
		Log: LogConfig{
			Level: "info",
			Mode:  "production",
		},
	}
}

// RequestTimeout returns the per-attempt timeout, zero when disabled.
func (t TutorConfig) RequestTimeout() time.Duration {
	return time.Duration(t.RequestTimeoutSecs) * time.Second
}

// FallbackDelay returns the pause between replayed words.
func (t TutorConfig) FallbackDelay() time.Duration {
	return time.Duration(t.FallbackDelayMs) * time.Millisecond
}

// ScrollDebounce returns the scroll quiet period.
func (u UIConfig) ScrollDebounce() time.Duration {
	return time.Duration(u.ScrollDebounceMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the studytutor configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("STUDYTUTOR_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".studytutor"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogFile returns the log file used when none is configured.
func DefaultLogFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studytutor.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens the config file to owner read/write,
// since it may hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file if present, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, statErr)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path into cfg. Unknown keys are rejected so typos do
// not go unnoticed.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with owner-only permissions. The file is
// replaced atomically: a crash leaves either the old or the new config.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := cfg.WriteTOML(&buf); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes(), 0600)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	tmp := f.Name()

	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	ok = true
	return nil
}

// WriteTOML encodes cfg with a short header.
func (c *Config) WriteTOML(w io.Writer) error {
	fmt.Fprintln(w, "# studytutor configuration file")
	fmt.Fprintln(w, "# API keys may also come from GEMINI_API_KEY or OPENROUTER_API_KEY.")
	fmt.Fprintln(w, "")

	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Tutor.Provider == "" {
		c.Tutor.Provider = def.Tutor.Provider
	}
	c.Tutor.Provider = strings.ToLower(strings.TrimSpace(c.Tutor.Provider))
	if c.Tutor.Model == "" && c.Tutor.Provider == ProviderGemini {
		c.Tutor.Model = def.Tutor.Model
	}
	if c.UI.BottomThreshold == 0 {
		c.UI.BottomThreshold = def.UI.BottomThreshold
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Mode == "" {
		c.Log.Mode = def.Log.Mode
	}
	if c.Log.File == "" {
		if f, err := DefaultLogFile(); err == nil {
			c.Log.File = f
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration. A missing API key is not an error
// here: it is reported on the first question instead.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Tutor.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		errs = append(errs, ValidationError{
			Field:   "tutor.provider",
			Message: fmt.Sprintf("must be %q or %q, got %q", ProviderGemini, ProviderOpenRouter, c.Tutor.Provider),
		})
	}

	if c.Tutor.Provider == ProviderOpenRouter && c.Tutor.Model == "" {
		errs = append(errs, ValidationError{Field: "tutor.model", Message: "required for the openrouter provider"})
	}

	if c.Tutor.BaseURL != "" {
		u, err := url.Parse(c.Tutor.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{Field: "tutor.base_url", Message: "must be an http(s) URL"})
		}
	}

	if c.Tutor.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "tutor.request_timeout_secs", Message: "must not be negative"})
	}
	if c.Tutor.FallbackDelayMs < 0 || c.Tutor.FallbackDelayMs > 5000 {
		errs = append(errs, ValidationError{Field: "tutor.fallback_delay_ms", Message: "must be between 0 and 5000"})
	}
	if c.UI.ScrollDebounceMs < 0 || c.UI.ScrollDebounceMs > 10000 {
		errs = append(errs, ValidationError{Field: "ui.scroll_debounce_ms", Message: "must be between 0 and 10000"})
	}
	if c.UI.BottomThreshold < 0 {
		errs = append(errs, ValidationError{Field: "ui.bottom_threshold", Message: "must not be negative"})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{Field: "log.level", Message: "must be debug, info, warn or error"})
	}
	switch c.Log.Mode {
	case "production", "development":
	default:
		errs = append(errs, ValidationError{Field: "log.mode", Message: "must be production or development"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - GEMINI_API_KEY / NEXT_PUBLIC_GEMINI_API_KEY: tutor.api_key for gemini
//   - OPENROUTER_API_KEY: tutor.api_key for openrouter
//   - STUDYTUTOR_PROVIDER: tutor.provider
//   - STUDYTUTOR_MODEL: tutor.model
//   - STUDYTUTOR_BASE_URL: tutor.base_url
//   - STUDYTUTOR_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() {
	if provider := os.Getenv("STUDYTUTOR_PROVIDER"); provider != "" {
		c.Tutor.Provider = provider
	}
	if model := os.Getenv("STUDYTUTOR_MODEL"); model != "" {
		c.Tutor.Model = model
	}
	if baseURL := os.Getenv("STUDYTUTOR_BASE_URL"); baseURL != "" {
		c.Tutor.BaseURL = baseURL
	}
	if level := os.Getenv("STUDYTUTOR_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	for _, name := range c.Tutor.KeyEnvVars() {
		if key := os.Getenv(name); key != "" {
			c.Tutor.APIKey = key
			break
		}
	}
}

// KeyEnvVars lists the variables read for the provider's API key, in
// priority order.
func (t TutorConfig) KeyEnvVars() []string {
	switch strings.ToLower(strings.TrimSpace(t.Provider)) {
	case ProviderOpenRouter:
		return []string{"OPENROUTER_API_KEY"}
	default:
		return []string{"GEMINI_API_KEY", "NEXT_PUBLIC_GEMINI_API_KEY"}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key path, e.g. "tutor.model".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its TOML key path. String input is converted to
// the field's type.
func (c *Config) Set(key string, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Type())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) != 2 {
		return reflect.Value{}, fmt.Errorf("invalid key %q (expected section.name)", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		next, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = next
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Keys returns every settable key in dot notation.
func Keys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		prefix, _, _ := strings.Cut(section.Tag.Get("toml"), ",")
		for j := 0; j < section.Type.NumField(); j++ {
			name, _, _ := strings.Cut(section.Type.Field(j).Tag.Get("toml"), ",")
			keys = append(keys, prefix+"."+name)
		}
	}
	return keys
}

// APIKeyMasked returns the key with all but the last four characters hidden.
func (t TutorConfig) APIKeyMasked() string {
	if t.APIKey == "" {
		return "(not set)"
	}
	if len(t.APIKey) <= 8 {
		return "****"
	}
	return strings.Repeat("*", 8) + t.APIKey[len(t.APIKey)-4:]
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Tutor.APIKey != "" {
		cp.Tutor.APIKey = cp.Tutor.APIKeyMasked()
	}
	return &cp
}
