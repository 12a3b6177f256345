package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestValidate(t *testing.T) {
	valid := &Cfg{
		ZipCode:              "15213",
		RadiusMiles:          25,
		MinProfitDollars:     30,
		VehicleMPG:           25,
		MaxListingAgeDays:    30,
		RecheckIntervalHours: 12,
	}

	if err := validate(valid); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *Cfg)
	}{
		{"missing zip code", func(c *Cfg) { c.ZipCode = "" }},
		{"zero radius", func(c *Cfg) { c.RadiusMiles = 0 }},
		{"negative min profit", func(c *Cfg) { c.MinProfitDollars = -1 }},
		{"negative MPG", func(c *Cfg) { c.VehicleMPG = -5 }},
		{"negative max age", func(c *Cfg) { c.MaxListingAgeDays = -1 }},
		{"zero recheck interval", func(c *Cfg) { c.RecheckIntervalHours = 0 }},
	}

	for _, tc := range cases {
		bad := *valid
		tc.mutate(&bad)
		if err := validate(&bad); err == nil {
			t.Errorf("Expected validation error for %s", tc.name)
		}
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:                 "8080",
		ZipCode:              "15213",
		RadiusMiles:          25,
		MinProfitDollars:     30,
		UseLowestSoldPrice:   true,
		VehicleMPG:           25,
		MaxListingAgeDays:    30,
		ExcludePending:       true,
		RecheckIntervalHours: 12,
		WorkerCount:          2,
		SchedulerInterval:    300,
		Debug:                true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if !cfg.UseLowestSoldPrice {
		t.Error("Expected use lowest sold price to be enabled")
	}
	if cfg.RecheckIntervalHours != 12 {
		t.Errorf("Expected recheck interval 12, got %d", cfg.RecheckIntervalHours)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
