package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./facescrape.db" description:"Path to the SQLite database file"`

	// Search settings
	WatchesDir  string `long:"watches-dir" env:"WATCHES_DIR" default:"./watches" description:"Directory containing watch configuration files"`
	ZipCode     string `long:"zip-code" env:"ZIP_CODE" default:"15213" description:"Home ZIP code for marketplace searches"`
	RadiusMiles int    `long:"radius-miles" env:"RADIUS_MILES" default:"25" description:"Marketplace search radius in miles"`

	// Arbitrage settings
	MinProfitDollars   float64 `long:"min-profit" env:"MIN_PROFIT_DOLLARS" default:"30" description:"Minimum dollar profit to accept an opportunity"`
	UseLowestSoldPrice bool    `long:"use-lowest-sold-price" env:"USE_LOWEST_SOLD_PRICE" description:"Use the lowest (not average) sold price as the reference price"`

	// Pickup cost settings
	VehicleMPG       float64 `long:"vehicle-mpg" env:"VEHICLE_MPG" default:"25" description:"Vehicle fuel efficiency in miles per gallon (0 disables pickup cost)"`
	GasPriceOverride float64 `long:"gas-price" env:"GAS_PRICE_OVERRIDE" default:"0" description:"Gas price per gallon override (0 = auto-lookup)"`
	HomeLat          float64 `long:"home-lat" env:"HOME_LAT" default:"0" description:"Home latitude for pickup distance calculation"`
	HomeLng          float64 `long:"home-lng" env:"HOME_LNG" default:"0" description:"Home longitude for pickup distance calculation"`

	// Listing filters
	MaxListingAgeDays int  `long:"max-listing-age-days" env:"MAX_LISTING_AGE_DAYS" default:"30" description:"Skip listings older than this many days (0 = no limit)"`
	ExcludePending    bool `long:"exclude-pending" env:"EXCLUDE_PENDING" description:"Skip listings marked as pending"`
	SortByPrice       bool `long:"sort-by-price" env:"SORT_BY_PRICE" description:"Analyze cheapest listings first"`

	// Recheck settings
	RecheckIntervalHours int `long:"recheck-interval-hours" env:"RECHECK_INTERVAL_HOURS" default:"12" description:"Hours between rechecks of stored opportunities"`
	RecheckLimit         int `long:"recheck-limit" env:"RECHECK_LIMIT" default:"50" description:"Maximum opportunities to recheck per run"`

	// Inference collaborator (Ollama)
	OllamaURL   string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Base URL of the Ollama inference server"`
	VisionModel string `long:"vision-model" env:"VISION_MODEL" default:"llava:13b" description:"Vision model used for image identification"`
	TextModel   string `long:"text-model" env:"TEXT_MODEL" default:"qwen2.5" description:"Text model used for title/description identification"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for task processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		WatchesDir:           raw.WatchesDir,
		ZipCode:              raw.ZipCode,
		RadiusMiles:          raw.RadiusMiles,
		MinProfitDollars:     raw.MinProfitDollars,
		UseLowestSoldPrice:   raw.UseLowestSoldPrice,
		VehicleMPG:           raw.VehicleMPG,
		GasPriceOverride:     raw.GasPriceOverride,
		HomeLat:              raw.HomeLat,
		HomeLng:              raw.HomeLng,
		MaxListingAgeDays:    raw.MaxListingAgeDays,
		ExcludePending:       raw.ExcludePending,
		SortByPrice:          raw.SortByPrice,
		RecheckIntervalHours: raw.RecheckIntervalHours,
		RecheckLimit:         raw.RecheckLimit,
		OllamaURL:            raw.OllamaURL,
		VisionModel:          raw.VisionModel,
		TextModel:            raw.TextModel,
		Port:                 raw.Port,
		WorkerCount:          raw.WorkerCount,
		SchedulerInterval:    raw.SchedulerInterval,
		APIAccessKey:         raw.APIAccessKey,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// validate rejects settings the pipeline cannot start with. Failures here are
// fatal at startup; nothing mid-run re-validates.
func validate(cfg *Cfg) error {
	if cfg.ZipCode == "" {
		return fmt.Errorf("zip code is required")
	}
	if cfg.RadiusMiles <= 0 {
		return fmt.Errorf("radius miles must be positive")
	}
	if cfg.MinProfitDollars < 0 {
		return fmt.Errorf("min profit must be non-negative")
	}
	if cfg.VehicleMPG < 0 {
		return fmt.Errorf("vehicle MPG must be non-negative")
	}
	if cfg.MaxListingAgeDays < 0 {
		return fmt.Errorf("max listing age must be non-negative")
	}
	if cfg.RecheckIntervalHours <= 0 {
		return fmt.Errorf("recheck interval must be positive")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
