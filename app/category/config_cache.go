package category

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	watchesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(watchesDir string) *ConfigCache {
	return &ConfigCache{
		watchesDir: watchesDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.watchesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.watchesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive watch name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		watchName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(watchName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "watch", watchName, "enabled", config.Settings.Enabled, "query", config.Query)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(watchName string) (*Config, error) {
	configFile := cc.getConfigFilePath(watchName)
	watchConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set watch name from parameter
	watchConfig.Name = watchName

	if err := cc.validateConfig(watchConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[watchConfig.Name] = watchConfig

	return watchConfig, nil
}

func (cc *ConfigCache) GetConfig(watchName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	watchConfig, ok := cc.cache[watchName]
	if !ok {
		return nil, fmt.Errorf("watch config with name '%s' not found", watchName)
	}
	return watchConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var watchConfig Config
	if err := yaml.Unmarshal(data, &watchConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &watchConfig, nil
}

func (cc *ConfigCache) validateConfig(watchConfig *Config) error {
	if watchConfig == nil {
		return fmt.Errorf("watchConfig is nil")
	}

	requiredFields := map[string]string{
		"watch name":  watchConfig.Name,
		"watch query": watchConfig.Query,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]float64{
		"min profit":   watchConfig.Settings.MinProfitDollars,
		"max price":    watchConfig.Settings.MaxPriceDollars,
		"radius miles": float64(watchConfig.Settings.RadiusMiles),
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(watchName string) string {
	return filepath.Join(cc.watchesDir, watchName+".yml")
}
