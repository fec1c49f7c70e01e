package location

import "time"

// Config holds proximity and reverse geocoding settings.
type Config struct {
	// ProximityMeters is the distance within which two points are the same place.
	ProximityMeters float64 `mapstructure:"proximity_meters" default:"10"`
	// GeocoderEnabled toggles reverse geocoding of new locations.
	GeocoderEnabled bool `mapstructure:"geocoder_enabled" default:"true"`
	// GeocoderURL is the Nominatim base URL.
	GeocoderURL string `mapstructure:"geocoder_url" default:"https://nominatim.openstreetmap.org"`
	// UserAgent identifies this service to Nominatim, as its usage policy requires.
	UserAgent string `mapstructure:"user_agent" default:"sighting-engine/1.0"`
	// GeocodeTimeoutSeconds bounds one lookup, including rate limit waiting.
	GeocodeTimeoutSeconds int `mapstructure:"geocode_timeout_seconds" default:"5"`
	// GeocodeRequestsPerSecond is the outbound request budget.
	GeocodeRequestsPerSecond float64 `mapstructure:"geocode_requests_per_second" default:"1"`
	// GeocodeCacheTTL is how long a lookup result is reused.
	GeocodeCacheTTL time.Duration `mapstructure:"geocode_cache_ttl" default:"24h"`
}
