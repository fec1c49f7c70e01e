package inaturalist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public v1 API.
const DefaultBaseURL = "https://api.inaturalist.org/v1"

const maxRetries = 3

// ErrNotFound is returned when a taxon lookup has no result.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inaturalist: unexpected status %d: %s", e.Code, e.Body)
}

// retryable reports whether a response status is worth another attempt.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// Client talks to the iNaturalist v1 API.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
}

// NewClient creates a client. Zero options fall back to defaults.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		cache:      cache.New(opts.CacheTTL, opts.CacheTTL*2),
	}
}

// TaxaQuery selects species below a root taxon, most observed first.
type TaxaQuery struct {
	RootID  int64
	Page    int
	PerPage int
}

// ListTaxa returns one page of active species under the root taxon.
func (c *Client) ListTaxa(ctx context.Context, q TaxaQuery) (*Page[Taxon], error) {
	params := url.Values{}
	params.Set("is_active", "true")
	params.Set("taxon_id", strconv.FormatInt(q.RootID, 10))
	params.Set("rank", "species")
	params.Set("order", "desc")
	params.Set("order_by", "observations_count")
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(max(q.Page, 1)))

	var page Page[Taxon]
	if err := c.get(ctx, "/taxa", params, &page); err != nil {
		return nil, fmt.Errorf("list taxa page %d: %w", q.Page, err)
	}
	return &page, nil
}

// GetTaxon looks up a single taxon. Results are cached, since ancestor walks
// revisit the same genera and families constantly.
func (c *Client) GetTaxon(ctx context.Context, id int64) (*Taxon, error) {
	key := "taxon:" + strconv.FormatInt(id, 10)
	if cached, found := c.cache.Get(key); found {
		if taxon, ok := cached.(*Taxon); ok {
			return taxon, nil
		}
	}

	var page Page[Taxon]
	if err := c.get(ctx, "/taxa/"+strconv.FormatInt(id, 10), nil, &page); err != nil {
		return nil, fmt.Errorf("get taxon %d: %w", id, err)
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("get taxon %d: %w", id, ErrNotFound)
	}

	taxon := &page.Results[0]
	c.cache.Set(key, taxon, cache.DefaultExpiration)
	return taxon, nil
}

// ObservationQuery selects observations of an iconic taxon group.
type ObservationQuery struct {
	IconicTaxa   string
	QualityGrade string
	Page         int
	PerPage      int
}

// ListObservations returns one page of observations.
func (c *Client) ListObservations(ctx context.Context, q ObservationQuery) (*Page[Observation], error) {
	params := url.Values{}
	if q.IconicTaxa != "" {
		params.Set("iconic_taxa", q.IconicTaxa)
	}
	if q.QualityGrade != "" {
		params.Set("quality_grade", q.QualityGrade)
	}
	params.Set("per_page", strconv.Itoa(q.PerPage))
	params.Set("page", strconv.Itoa(max(q.Page, 1)))

	var page Page[Observation]
	if err := c.get(ctx, "/observations", params, &page); err != nil {
		return nil, fmt.Errorf("list observations page %d: %w", q.Page, err)
	}
	return &page, nil
}

// get performs a GET with retries for transient failures. Client errors
// other than 429 are returned immediately.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		err := c.do(ctx, target, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, target string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
