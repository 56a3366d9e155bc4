package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumport/internal/platform/metrics"
)

func newGeocodeServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/reverse" {
			switch r.URL.Query().Get("lat") {
			case "39.7817":
				_, _ = w.Write([]byte(`{"lat":"39.7817","lon":"-89.6501","display_name":"1 Main St, Springfield, IL"}`))
			default:
				_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
			}
			return
		}

		switch r.URL.Query().Get("q") {
		case "1 Main St, Springfield":
			_, _ = w.Write([]byte(`[{"lat":"39.7817","lon":"-89.6501","display_name":"1 Main St, Springfield, IL"}]`))
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newService(baseURL string) *Service {
	var client *Client
	if baseURL != "" {
		client = NewClient(baseURL)
	}
	return NewService(client, NewMemoryCache(), time.Hour,
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestLocate_ResolvesAndCaches(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	svc := newService(server.URL)
	ctx := context.Background()

	result, ok := svc.Locate(ctx, "1 Main St, Springfield")
	require.True(t, ok)
	assert.InDelta(t, 39.7817, result.Lat, 0.0001)
	assert.InDelta(t, -89.6501, result.Lon, 0.0001)

	// Second lookup is served from cache.
	cached, ok := svc.Locate(ctx, "1 Main St, Springfield")
	require.True(t, ok)
	assert.Equal(t, result, cached)
	assert.Equal(t, int64(1), hits.Load())

	// Normalized variants share the cache entry.
	_, ok = svc.Locate(ctx, "  1  main st,  springfield ")
	assert.True(t, ok)
	assert.Equal(t, int64(1), hits.Load())
}

func TestLocate_NoMatchIsNotAnError(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	svc := newService(server.URL)

	_, ok := svc.Locate(context.Background(), "Atlantis")
	assert.False(t, ok)
}

func TestLocate_RemoteFailureDegrades(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	svc := newService(server.URL)

	_, ok := svc.Locate(context.Background(), "boom")
	assert.False(t, ok)
}

func TestLocate_DisabledClient(t *testing.T) {
	svc := newService("")
	_, ok := svc.Locate(context.Background(), "1 Main St, Springfield")
	assert.False(t, ok)
}

func TestLocate_EmptyAddress(t *testing.T) {
	svc := newService("")
	_, ok := svc.Locate(context.Background(), "")
	assert.False(t, ok)
}

func TestLocate_CountsRemoteResolutionsSeparately(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(NewClient(server.URL), NewMemoryCache(), time.Hour, m,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, ok := svc.Locate(ctx, "1 Main St, Springfield")
	require.True(t, ok)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.GeocodeLookups.WithLabelValues("resolved")))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.GeocodeLookups.WithLabelValues("hit")))

	// The cached repeat counts as a hit, not another resolution.
	_, ok = svc.Locate(ctx, "1 Main St, Springfield")
	require.True(t, ok)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.GeocodeLookups.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.GeocodeLookups.WithLabelValues("hit")))
}

func TestDescribe_ResolvesAndCaches(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	svc := newService(server.URL)
	ctx := context.Background()

	result, ok := svc.Describe(ctx, 39.7817, -89.6501)
	require.True(t, ok)
	assert.Equal(t, "1 Main St, Springfield, IL", result.DisplayName)

	cached, ok := svc.Describe(ctx, 39.7817, -89.6501)
	require.True(t, ok)
	assert.Equal(t, result, cached)
	assert.Equal(t, int64(1), hits.Load())
}

func TestDescribe_UnknownPoint(t *testing.T) {
	var hits atomic.Int64
	server := newGeocodeServer(t, &hits)
	svc := newService(server.URL)

	_, ok := svc.Describe(context.Background(), 0, 0)
	assert.False(t, ok)
}

func TestDescribe_DisabledClient(t *testing.T) {
	svc := newService("")
	_, ok := svc.Describe(context.Background(), 39.7817, -89.6501)
	assert.False(t, ok)
}
