package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/albumdex/internal/inference"
	"github.com/starford/albumdex/internal/logging"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Lock        LockConfig        `yaml:"lock"`
	LLM         LLMConfig         `yaml:"llm"`
	Directories map[string]string `yaml:"directories"`
	Settings    SettingsConfig    `yaml:"settings"`
	Site        SiteConfig        `yaml:"site"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration. API keys are not checked here:
// only commands that call the inference service need one.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// LockPath returns the catalog lock file, defaulting to one beside the
// database.
func (c *Config) LockPath() string {
	if c.Lock.Path != "" {
		return c.Lock.Path
	}
	return c.SQLite.Path + ".lock"
}

// Directory returns the image directory registered under name.
func (c *Config) Directory(name string) (string, error) {
	dir, ok := c.Directories[name]
	if !ok || strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("unknown directory %q (configured: %s)", name, strings.Join(c.DirectoryNames(), ", "))
	}
	return dir, nil
}

// DirectoryNames returns the configured directory names in sorted order.
func (c *Config) DirectoryNames() []string {
	names := make([]string, 0, len(c.Directories))
	for name := range c.Directories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.FormatText, logging.FormatJSON, logging.FormatLogfmt)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// LockConfig overrides the location of the single-writer lock file.
type LockConfig struct {
	Path string `yaml:"path"`
}

// ProviderConfig holds the credentials of one inference provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// LLMConfig selects the inference provider.
type LLMConfig struct {
	Provider          string         `yaml:"provider"`
	OpenAI            ProviderConfig `yaml:"openai"`
	Anthropic         ProviderConfig `yaml:"anthropic"`
	Google            ProviderConfig `yaml:"google"`
	TimeoutSeconds    int            `yaml:"timeout_seconds"`
	MaxImageDimension int            `yaml:"max_image_dimension"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(
			inference.ProviderOpenAI, inference.ProviderAnthropic, inference.ProviderGoogle)),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.MaxImageDimension, validation.Min(0)),
	)
}

// Inference returns the client configuration of the selected provider.
func (c *LLMConfig) Inference() inference.Config {
	var p ProviderConfig
	switch c.Provider {
	case inference.ProviderOpenAI:
		p = c.OpenAI
	case inference.ProviderAnthropic:
		p = c.Anthropic
	case inference.ProviderGoogle:
		p = c.Google
	}
	return inference.Config{
		Provider:          c.Provider,
		APIKey:            p.APIKey,
		Model:             p.Model,
		BaseURL:           p.BaseURL,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		MaxImageDimension: c.MaxImageDimension,
	}
}

// SettingsConfig holds catalog behaviour settings.
type SettingsConfig struct {
	AutoEnrich       bool     `yaml:"auto_enrich"`
	ImageExtensions  []string `yaml:"image_extensions"`
	PredefinedGenres []string `yaml:"predefined_genres"`
	UserCategories   []string `yaml:"user_categories"`
}

// Validate validates the settings.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ImageExtensions, validation.Each(validation.Required, validation.By(isExtension))),
	)
}

func isExtension(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, ".") || filepath.Ext(s) != s {
		return fmt.Errorf("must look like .jpg")
	}
	return nil
}

// SiteConfig holds static site generation settings.
type SiteConfig struct {
	OutputDir     string `yaml:"output_dir"`
	Title         string `yaml:"title"`
	Subtitle      string `yaml:"subtitle"`
	ThumbnailSize int    `yaml:"thumbnail_size"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.ThumbnailSize, validation.Min(0), validation.Max(2048)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatText,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./albums.db",
		},
		LLM: LLMConfig{
			Provider:          inference.ProviderOpenAI,
			TimeoutSeconds:    60,
			MaxImageDimension: 2048,
		},
		Directories: map[string]string{},
		Settings: SettingsConfig{
			AutoEnrich:      true,
			ImageExtensions: []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
			PredefinedGenres: []string{
				"rock", "pop", "jazz", "classical", "electronic", "hip-hop",
				"folk", "metal", "blues", "country", "r&b", "soul", "ambient",
			},
		},
		Site: SiteConfig{
			OutputDir:     "./site",
			Title:         "Album Collection",
			ThumbnailSize: 300,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
