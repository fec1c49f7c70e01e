package location

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatim() *Nominatim {
	return NewNominatim(Config{
		GeocoderURL:              "https://nominatim.test",
		UserAgent:                "sighting-engine-test",
		GeocodeTimeoutSeconds:    2,
		GeocodeRequestsPerSecond: 100,
	}, nil)
}

func TestNominatim_Lookup(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("GET", "https://nominatim.test/reverse",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "sighting-engine-test", req.Header.Get("User-Agent"))
			assert.Equal(t, "json", req.URL.Query().Get("format"))
			assert.Equal(t, "30.04439", req.URL.Query().Get("lat"))
			return httpmock.NewStringResponse(200, `{"address":{"town":"Giza","state":"Giza Governorate","country":"Egypt"}}`), nil
		})

	n := newTestNominatim()
	place, err := n.Lookup(context.Background(), 30.04439, 31.23573)
	require.NoError(t, err)
	assert.Equal(t, Place{Name: "Giza", Country: "Egypt", Region: "Giza Governorate"}, place)

	// Second lookup of the same rounded point is served from cache.
	_, err = n.Lookup(context.Background(), 30.04440, 31.23574)
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestNominatim_Failures(t *testing.T) {
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("GET", "https://nominatim.test/reverse",
		httpmock.NewStringResponder(200, `{"error":"Unable to geocode"}`))

	_, err := newTestNominatim().Lookup(context.Background(), 0, -140)
	assert.ErrorIs(t, err, ErrNoAddress)

	httpmock.Reset()
	httpmock.RegisterResponder("GET", "https://nominatim.test/reverse",
		httpmock.NewStringResponder(503, `unavailable`))

	_, err = newTestNominatim().Lookup(context.Background(), 1, 1)
	assert.ErrorContains(t, err, "unexpected status 503")
}
