package geocode

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"alumport/internal/platform/metrics"
)

// Service is the cached, best-effort lookup the rest of the application
// uses.
type Service struct {
	client  *Client
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService wires the lookup path. A nil client disables remote lookups;
// only cached results (if any) are served.
func NewService(client *Client, cache Cache, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// Locate resolves an address. The second return is false when the address
// could not be resolved, whatever the reason: no match, remote outage, or
// lookups disabled. Callers treat false as "no coordinates", never as an
// error.
func (s *Service) Locate(ctx context.Context, address string) (Result, bool) {
	if address == "" {
		return Result{}, false
	}

	if result, ok, err := s.cache.Get(ctx, address); err != nil {
		s.logger.Warn("geocode cache read failed", slog.String("error", err.Error()))
	} else if ok {
		s.metrics.GeocodeCacheHits.Inc()
		s.metrics.GeocodeLookups.WithLabelValues("hit").Inc()
		return result, true
	}

	if s.client == nil {
		s.metrics.GeocodeLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}

	result, err := s.client.Forward(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			s.metrics.GeocodeLookups.WithLabelValues("miss").Inc()
		} else {
			s.metrics.GeocodeLookups.WithLabelValues("error").Inc()
			s.logger.Warn("geocode lookup failed",
				slog.String("address", address),
				slog.String("error", err.Error()))
		}
		return Result{}, false
	}

	if err := s.cache.Set(ctx, address, result, s.ttl); err != nil {
		s.logger.Warn("geocode cache write failed", slog.String("error", err.Error()))
	}
	s.metrics.GeocodeLookups.WithLabelValues("resolved").Inc()
	return result, true
}

// reverseKey keys reverse lookups by coordinate, rounded so nearby floats
// share an entry.
func reverseKey(lat, lon float64) string {
	return "rev:" + strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}

// Describe resolves coordinates to a display address. Same contract as
// Locate: false means "no address", never an error.
func (s *Service) Describe(ctx context.Context, lat, lon float64) (Result, bool) {
	key := reverseKey(lat, lon)

	if result, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("geocode cache read failed", slog.String("error", err.Error()))
	} else if ok {
		s.metrics.GeocodeCacheHits.Inc()
		s.metrics.GeocodeLookups.WithLabelValues("hit").Inc()
		return result, true
	}

	if s.client == nil {
		s.metrics.GeocodeLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}

	result, err := s.client.Reverse(ctx, lat, lon)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			s.metrics.GeocodeLookups.WithLabelValues("miss").Inc()
		} else {
			s.metrics.GeocodeLookups.WithLabelValues("error").Inc()
			s.logger.Warn("reverse geocode lookup failed",
				slog.Float64("lat", lat),
				slog.Float64("lon", lon),
				slog.String("error", err.Error()))
		}
		return Result{}, false
	}

	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.Warn("geocode cache write failed", slog.String("error", err.Error()))
	}
	s.metrics.GeocodeLookups.WithLabelValues("resolved").Inc()
	return result, true
}
