// Package geocode resolves provider locations through an external geocoding
// provider, behind a TTL cache and a calendar-day rate limit. Every failure
// mode short of a programmer error is soft: callers get nil and continue with
// a coordinate-free record.
package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/singleflight"

	"github.com/Ramsey-B/yarrow/pkg/geo"
	"github.com/Ramsey-B/yarrow/pkg/normalize"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Config holds cache lifetimes and resolver budget for the geocode service.
type Config struct {
	// ForwardTTL bounds ZIP centroid entries. ZIP geography is stable, so
	// this runs long.
	ForwardTTL time.Duration `json:"forward_ttl"`

	// ReverseTTL bounds coordinate-to-place entries.
	ReverseTTL time.Duration `json:"reverse_ttl"`

	// DailyLimit caps external resolver calls per UTC day.
	DailyLimit int `json:"daily_limit"`

	// ResolveTimeout bounds a single external call.
	ResolveTimeout time.Duration `json:"resolve_timeout"`
}

// DefaultConfig returns the default geocode config.
func DefaultConfig() Config {
	return Config{
		ForwardTTL:     90 * 24 * time.Hour,
		ReverseTTL:     24 * time.Hour,
		DailyLimit:     1000,
		ResolveTimeout: 5 * time.Second,
	}
}

// Service is the cached, rate-limited front to the external resolver.
type Service struct {
	logger   ectologger.Logger
	resolver Resolver
	forward  *Cache[geo.Coordinate]
	reverse  *Cache[Place]
	limiter  *DailyLimiter
	flight   singleflight.Group
	timeout  time.Duration
}

// NewService creates a geocode service. now is injectable for tests; nil uses
// the wall clock.
func NewService(logger ectologger.Logger, resolver Resolver, config Config, now func() time.Time) *Service {
	return &Service{
		logger:   logger,
		resolver: resolver,
		forward:  NewCache[geo.Coordinate](config.ForwardTTL, now),
		reverse:  NewCache[Place](config.ReverseTTL, now),
		limiter:  NewDailyLimiter(config.DailyLimit, now),
		timeout:  config.ResolveTimeout,
	}
}

// ForwardZip resolves a ZIP to its centroid coordinate. Returns nil on a
// malformed ZIP, cache miss with exhausted budget, resolver timeout, or
// not-found; callers proceed without a coordinate.
func (s *Service) ForwardZip(ctx context.Context, zip string) *geo.Coordinate {
	ctx, span := tracing.StartSpan(ctx, "geocode.Service.ForwardZip")
	defer span.End()

	normalized := normalize.ZipCode(zip)
	if normalized == "" {
		return nil
	}

	key := "zip:" + normalized
	if coord, ok := s.forward.Get(key); ok {
		return &coord
	}

	result := s.resolve(ctx, key, func(callCtx context.Context) (any, error) {
		return s.resolver.Forward(callCtx, normalized)
	})
	if result == nil {
		return nil
	}

	coord, ok := result.(*geo.Coordinate)
	if !ok || coord == nil {
		return nil
	}
	s.forward.Set(key, *coord)
	return coord
}

// ReversePoint resolves a coordinate to its city/state/ZIP. The cache key
// rounds to 4 decimals, about 36 feet, so nearby lookups share an entry.
// Returns nil on any soft failure.
func (s *Service) ReversePoint(ctx context.Context, coord geo.Coordinate) *Place {
	ctx, span := tracing.StartSpan(ctx, "geocode.Service.ReversePoint")
	defer span.End()

	if !coord.Valid() {
		return nil
	}

	key := fmt.Sprintf("rev:%.4f,%.4f", coord.Latitude, coord.Longitude)
	if place, ok := s.reverse.Get(key); ok {
		return &place
	}

	result := s.resolve(ctx, key, func(callCtx context.Context) (any, error) {
		return s.resolver.Reverse(callCtx, coord)
	})
	if result == nil {
		return nil
	}

	place, ok := result.(*Place)
	if !ok || place == nil {
		return nil
	}
	s.reverse.Set(key, *place)
	return place
}

// Remaining reports how many external calls are left in today's budget.
func (s *Service) Remaining() int {
	return s.limiter.Remaining()
}

// resolve performs one deduplicated, rate-limited, timeout-bounded external
// call. Concurrent lookups for the same key share a single flight and consume
// one budget token. Nil means the caller should degrade, never retry.
func (s *Service) resolve(ctx context.Context, key string, call func(context.Context) (any, error)) any {
	result, err, _ := s.flight.Do(key, func() (any, error) {
		if !s.limiter.Allow() {
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"key": key,
			}).Warn("Geocode daily budget exhausted, skipping external resolution")
			return nil, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		return call(callCtx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"key": key,
		}).Warn("Geocode resolution failed, continuing without coordinates")
		return nil
	}
	return result
}
