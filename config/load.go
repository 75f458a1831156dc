package config

import (
	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/yarrow/pkg/geocode"
	"github.com/Ramsey-B/yarrow/pkg/matching"
)

// Load reads configuration from the environment, with a local .env file
// applied first when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment wins in deployed setups.
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MatchingConfig maps the environment knobs onto the classifier config.
func (c *Config) MatchingConfig() matching.Config {
	return matching.Config{
		ExactWebsiteConfidence: c.ExactWebsiteConfidence,
		ExactAddressConfidence: c.ExactAddressConfidence,
		NameLocationConfidence: c.NameLocationConfidence,
		FuzzyConfidence:        c.FuzzyConfidence,
		NameLocationSimilarity: c.NameLocationSimilarity,
		FuzzySimilarity:        c.FuzzySimilarity,
		FuzzyMaxDistanceMiles:  c.FuzzyMaxDistanceMiles,
	}
}

// ReconcilerConfig maps the environment knobs onto the reconciler config.
func (c *Config) ReconcilerConfig() matching.ReconcilerConfig {
	return matching.ReconcilerConfig{
		Workers:             c.ReconcileWorkerCount,
		ConfidenceThreshold: c.ConfidenceThreshold,
	}
}

// GeocodeConfig maps the environment knobs onto the geocode service config.
func (c *Config) GeocodeConfig() geocode.Config {
	return geocode.Config{
		ForwardTTL:     c.GeocodeForwardTTL,
		ReverseTTL:     c.GeocodeReverseTTL,
		DailyLimit:     c.GeocodeDailyLimit,
		ResolveTimeout: c.GeocodeResolveTimeout,
	}
}
