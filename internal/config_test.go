package internal

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/albumdex/internal/inference"
	pkgconfig "github.com/starford/albumdex/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Settings.AutoEnrich {
		t.Error("auto_enrich should default to true")
	}
}

func TestLLMConfig_UnknownProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.Provider = "mistral"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider should fail validation")
	}
}

func TestLLMConfig_InferenceSelectsProvider(t *testing.T) {
	c := LLMConfig{
		Provider:          " Anthropic ",
		OpenAI:            ProviderConfig{APIKey: "sk-openai"},
		Anthropic:         ProviderConfig{APIKey: "sk-ant", Model: "claude", BaseURL: "http://localhost"},
		TimeoutSeconds:    30,
		MaxImageDimension: 1024,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	got := c.Inference()
	want := inference.Config{
		Provider:          inference.ProviderAnthropic,
		APIKey:            "sk-ant",
		Model:             "claude",
		BaseURL:           "http://localhost",
		Timeout:           30 * time.Second,
		MaxImageDimension: 1024,
	}
	if got != want {
		t.Errorf("Inference() = %+v, want %+v", got, want)
	}
}

func TestSettingsConfig_ImageExtensions(t *testing.T) {
	ok := SettingsConfig{ImageExtensions: []string{".jpg", ".webp"}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid extensions rejected: %v", err)
	}
	bad := SettingsConfig{ImageExtensions: []string{"jpg"}}
	if err := bad.Validate(); err == nil {
		t.Error("extension without a dot should fail")
	}
}

func TestConfig_LockPathDefaultsBesideDatabase(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = "/data/albums.db"
	if got := cfg.LockPath(); got != "/data/albums.db.lock" {
		t.Errorf("LockPath() = %q, want %q", got, "/data/albums.db.lock")
	}
	cfg.Lock.Path = "/run/albumdex.lock"
	if got := cfg.LockPath(); got != "/run/albumdex.lock" {
		t.Errorf("LockPath() = %q, want override", got)
	}
}

func TestConfig_Directory(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Directories = map[string]string{"albums_owned": "./owned", "albums_wishlist": "./wishlist"}

	dir, err := cfg.Directory("albums_owned")
	if err != nil || dir != "./owned" {
		t.Errorf("Directory = %q, %v", dir, err)
	}
	_, err = cfg.Directory("vinyl")
	if err == nil || !strings.Contains(err.Error(), "albums_owned, albums_wishlist") {
		t.Errorf("unknown directory error = %v", err)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ALBUMDEX_TEST_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  log_format: json
  http:
    port: 9090
sqlite:
  path: ./test.db
llm:
  provider: openai
  openai:
    api_key: ${ALBUMDEX_TEST_KEY}
settings:
  auto_enrich: false
  user_categories: [road trip, late night]
site:
  output_dir: ./out
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("api_key = %q, want expanded value", cfg.LLM.OpenAI.APIKey)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogFormat != "json" || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Settings.AutoEnrich {
		t.Error("auto_enrich should be overridden to false")
	}
	if !reflect.DeepEqual(cfg.Settings.UserCategories, []string{"road trip", "late night"}) {
		t.Errorf("user_categories = %v", cfg.Settings.UserCategories)
	}
	if len(cfg.Settings.PredefinedGenres) == 0 {
		t.Error("defaults not kept for unset keys")
	}
}
