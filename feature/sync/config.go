package sync

import "time"

// Config holds settings for the external observation import.
type Config struct {
	// Enabled starts the periodic scheduler with the HTTP server.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// BaseURL is the iNaturalist API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.inaturalist.org/v1"`
	// UserAgent identifies this service to the API.
	UserAgent string `mapstructure:"user_agent" default:"sighting-engine/1.0"`
	// RootTaxonID limits imported species to descendants of this taxon (Insecta).
	RootTaxonID int64 `mapstructure:"root_taxon_id" default:"47158"`
	// IconicTaxa filters imported observations.
	IconicTaxa string `mapstructure:"iconic_taxa" default:"Insecta"`
	// QualityGrade filters imported observations.
	QualityGrade string `mapstructure:"quality_grade" default:"research"`
	// PerPage is the page size of every listing.
	PerPage int `mapstructure:"per_page" default:"200"`
	// MaxPages caps the pages read per phase.
	MaxPages int `mapstructure:"max_pages" default:"50"`
	// PageDelay is slept between species pages.
	PageDelay time.Duration `mapstructure:"page_delay" default:"1s"`
	// Interval is the scheduler period.
	Interval time.Duration `mapstructure:"interval" default:"2m"`
	// TimeoutSeconds bounds one API call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// RequestsPerSecond is the outbound request budget.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"1"`
	// CacheTTL is how long ancestor taxa are reused.
	CacheTTL time.Duration `mapstructure:"cache_ttl" default:"24h"`
}

func (c Config) perPage() int {
	if c.PerPage <= 0 {
		return 200
	}
	return c.PerPage
}

func (c Config) maxPages() int {
	if c.MaxPages <= 0 {
		return 50
	}
	return c.MaxPages
}
