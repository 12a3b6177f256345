package category

// Configuration types for watch definitions. Each watch is a YAML file in
// the watches directory describing a search to run against the marketplace.

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	Query    string         `yaml:"query"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled          bool     `yaml:"enabled"`
	MinProfitDollars float64  `yaml:"min_profit"`   // 0 = use global setting
	MaxPriceDollars  float64  `yaml:"max_price"`    // 0 = no cap
	RadiusMiles      int      `yaml:"radius_miles"` // 0 = use global setting
	ExcludeKeywords  []string `yaml:"exclude_keywords"`
}
