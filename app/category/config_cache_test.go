package category

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
query: "nintendo switch"

settings:
  enabled: true
  min_profit: 40
  max_price: 200
  radius_miles: 25
  exclude_keywords:
    - "lite"
    - "joycon only"
`

	err := os.WriteFile(filepath.Join(tempDir, "switch.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 watchConfig, got %d", configCache.GetConfigCount())
	}

	watchConfig, err := configCache.GetConfig("switch")
	if err != nil {
		t.Fatal(err)
	}

	if watchConfig.Name != "switch" {
		t.Errorf("Expected name 'switch', got '%s'", watchConfig.Name)
	}
	if watchConfig.Query != "nintendo switch" {
		t.Errorf("Expected query 'nintendo switch', got '%s'", watchConfig.Query)
	}
	if watchConfig.Settings.MinProfitDollars != 40 {
		t.Errorf("Expected min profit 40, got %f", watchConfig.Settings.MinProfitDollars)
	}
	if watchConfig.Settings.RadiusMiles != 25 {
		t.Errorf("Expected radius 25, got %d", watchConfig.Settings.RadiusMiles)
	}
	if len(watchConfig.Settings.ExcludeKeywords) != 2 {
		t.Errorf("Expected 2 exclude keywords, got %d", len(watchConfig.Settings.ExcludeKeywords))
	}
}

func TestConfigCacheMissingQuery(t *testing.T) {
	tempDir := t.TempDir()

	content := `
settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "broken.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err == nil {
		t.Fatal("Expected error for config without query")
	}
	if !strings.Contains(err.Error(), "query") {
		t.Errorf("Expected query error, got: %v", err)
	}
}

func TestConfigCacheEnabledFiltering(t *testing.T) {
	tempDir := t.TempDir()

	enabled := `
query: "gpu"
settings:
  enabled: true
`
	disabled := `
query: "ps5"
settings:
  enabled: false
`

	if err := os.WriteFile(filepath.Join(tempDir, "gpu.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "ps5.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", configCache.GetConfigCount())
	}

	enabledConfigs := configCache.GetEnabledConfigs()
	if len(enabledConfigs) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabledConfigs))
	}
	if _, ok := enabledConfigs["gpu"]; !ok {
		t.Error("Expected 'gpu' watch to be enabled")
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache("/nonexistent/watches")
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
}
