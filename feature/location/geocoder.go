package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sighting-engine/core/metrics"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// ErrNoAddress is returned when the geocoder knows nothing about a point.
var ErrNoAddress = errors.New("no address for point")

// Place is the reverse geocoding result used to label a new location.
type Place struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Region  string `json:"region"`
}

// Geocoder resolves coordinates to a place. Implementations must bound
// their own latency; callers treat every error as "unknown place".
type Geocoder interface {
	Lookup(ctx context.Context, lat, lon float64) (Place, error)
}

// Nominatim is a Geocoder backed by the OpenStreetMap Nominatim reverse API.
type Nominatim struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	metrics    *metrics.Metrics
}

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// NewNominatim creates a Nominatim client from the location config.
func NewNominatim(cfg Config, m *metrics.Metrics) *Nominatim {
	timeout := time.Duration(cfg.GeocodeTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rps := cfg.GeocodeRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	ttl := cfg.GeocodeCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Nominatim{
		baseURL:    cfg.GeocoderURL,
		userAgent:  cfg.UserAgent,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache.New(ttl, ttl*2),
		metrics:    m,
	}
}

// Lookup reverse geocodes a point. Results are cached by coordinates
// rounded to four decimals (about 11 m).
func (n *Nominatim) Lookup(ctx context.Context, lat, lon float64) (Place, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if cached, found := n.cache.Get(key); found {
		if place, ok := cached.(Place); ok {
			n.metrics.RecordGeocode("hit")
			return place, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	place, err := n.fetch(ctx, lat, lon)
	if err != nil {
		n.metrics.RecordGeocode("failed")
		return Place{}, err
	}
	n.metrics.RecordGeocode("fetched")
	n.cache.Set(key, place, cache.DefaultExpiration)
	return place, nil
}

func (n *Nominatim) fetch(ctx context.Context, lat, lon float64) (Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return Place{}, fmt.Errorf("geocode rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", "10")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if body.Error != "" {
		return Place{}, fmt.Errorf("%w: %s", ErrNoAddress, body.Error)
	}

	a := body.Address
	name := a.City
	if name == "" {
		name = a.Town
	}
	if name == "" {
		name = a.Village
	}
	return Place{Name: name, Country: a.Country, Region: a.State}, nil
}
