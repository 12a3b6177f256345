package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Search settings
	WatchesDir  string
	ZipCode     string
	RadiusMiles int

	// Arbitrage settings
	MinProfitDollars   float64
	UseLowestSoldPrice bool

	// Pickup cost settings
	VehicleMPG       float64
	GasPriceOverride float64
	HomeLat          float64
	HomeLng          float64

	// Listing filters
	MaxListingAgeDays int
	ExcludePending    bool
	SortByPrice       bool

	// Recheck settings
	RecheckIntervalHours int
	RecheckLimit         int

	// Inference collaborator (Ollama)
	OllamaURL   string
	VisionModel string
	TextModel   string

	// Application configuration
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
