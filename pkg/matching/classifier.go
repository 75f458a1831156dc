// Package matching classifies pairs of provider records into match tiers and
// drives full reconciliation runs between directory sources.
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/geo"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalize"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// Config holds the tier confidences and similarity thresholds for
// classification. All values are tunable per deployment via environment.
type Config struct {
	ExactWebsiteConfidence int     `json:"exact_website_confidence"`
	ExactAddressConfidence int     `json:"exact_address_confidence"`
	NameLocationConfidence int     `json:"name_location_confidence"`
	FuzzyConfidence        int     `json:"fuzzy_confidence"`
	NameLocationSimilarity float64 `json:"name_location_similarity"`
	FuzzySimilarity        float64 `json:"fuzzy_similarity"`
	FuzzyMaxDistanceMiles  float64 `json:"fuzzy_max_distance_miles"`
}

// DefaultConfig returns the default classification config.
func DefaultConfig() Config {
	return Config{
		ExactWebsiteConfidence: 100,
		ExactAddressConfidence: 95,
		NameLocationConfidence: 85,
		FuzzyConfidence:        70,
		NameLocationSimilarity: 0.8,
		FuzzySimilarity:        0.6,
		FuzzyMaxDistanceMiles:  10,
	}
}

// CoordinateSource supplies coordinates for records whose directory did not
// carry any, keyed by ZIP. Optional; a nil source disables the fallback.
type CoordinateSource interface {
	ForwardZip(ctx context.Context, zip string) *geo.Coordinate
}

// PairResult is the outcome of classifying one source record against one
// candidate record.
type PairResult struct {
	Candidate     *models.Provider
	Tier          models.MatchTier
	Confidence    int
	DistanceMiles *float64
	DonorFee      *float64
}

// Classifier evaluates provider pairs against the tier ladder.
type Classifier struct {
	logger ectologger.Logger
	scorer *Scorer
	coords CoordinateSource
	config Config
}

// NewClassifier creates a new classifier. coords may be nil.
func NewClassifier(logger ectologger.Logger, coords CoordinateSource, config Config) *Classifier {
	return &Classifier{
		logger: logger,
		scorer: NewScorer(),
		coords: coords,
		config: config,
	}
}

// ClassifyPair runs one source record against one candidate and returns the
// highest tier the pair satisfies. Tiers are checked strongest first.
func (c *Classifier) ClassifyPair(ctx context.Context, source, candidate *models.Provider) PairResult {
	result := PairResult{
		Candidate: candidate,
		Tier:      models.MatchTierNone,
	}

	if tier, conf := c.evaluate(ctx, source, candidate); tier != models.MatchTierNone {
		result.Tier = tier
		result.Confidence = conf
		result.DistanceMiles = c.distance(ctx, source, candidate)
		result.DonorFee = donorFee(candidate)
	}

	return result
}

// ClassifyAgainst runs one source record against a candidate set and returns
// the best result. Scanning stops early once a candidate reaches the maximum
// confidence, so ties at the top resolve to the earliest candidate in slice
// order and runs stay deterministic for a fixed input order.
func (c *Classifier) ClassifyAgainst(ctx context.Context, source *models.Provider, candidates []*models.Provider) PairResult {
	ctx, span := tracing.StartSpan(ctx, "matching.Classifier.ClassifyAgainst")
	defer span.End()

	best := PairResult{Tier: models.MatchTierNone}

	for _, candidate := range candidates {
		if candidate.ID == source.ID {
			continue
		}

		result := c.ClassifyPair(ctx, source, candidate)
		if result.Confidence > best.Confidence {
			best = result
		}
		if best.Confidence >= c.config.ExactWebsiteConfidence {
			break
		}
	}

	if best.Tier != models.MatchTierNone {
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"source_id":    source.ID,
			"candidate_id": best.Candidate.ID,
			"tier":         best.Tier,
			"confidence":   best.Confidence,
		}).Debug("Classified provider match")
	}

	return best
}

// evaluate walks the tier ladder top down and returns the first tier the pair
// satisfies.
func (c *Classifier) evaluate(ctx context.Context, source, candidate *models.Provider) (models.MatchTier, int) {
	if c.websitesMatch(source, candidate) {
		return models.MatchTierExactWebsite, c.config.ExactWebsiteConfidence
	}
	if c.addressesMatch(source, candidate) {
		return models.MatchTierExactAddress, c.config.ExactAddressConfidence
	}
	if c.nameLocationMatch(source, candidate) {
		return models.MatchTierNameLocation, c.config.NameLocationConfidence
	}
	if c.fuzzyMatch(ctx, source, candidate) {
		return models.MatchTierFuzzy, c.config.FuzzyConfidence
	}
	return models.MatchTierNone, 0
}

func (c *Classifier) websitesMatch(source, candidate *models.Provider) bool {
	if source.Website == nil || candidate.Website == nil {
		return false
	}
	a := normalize.Website(*source.Website)
	b := normalize.Website(*candidate.Website)
	return a != "" && a == b
}

func (c *Classifier) addressesMatch(source, candidate *models.Provider) bool {
	a := normalize.Address(source.Address, source.City, source.State, source.ZipCode)
	b := normalize.Address(candidate.Address, candidate.City, candidate.State, candidate.ZipCode)
	return a != "" && a == b
}

func (c *Classifier) nameLocationMatch(source, candidate *models.Provider) bool {
	if normalize.City(source.City) == "" || normalize.State(source.State) == "" {
		return false
	}
	if normalize.City(source.City) != normalize.City(candidate.City) {
		return false
	}
	if normalize.State(source.State) != normalize.State(candidate.State) {
		return false
	}
	return c.nameSimilarity(source, candidate) >= c.config.NameLocationSimilarity
}

func (c *Classifier) fuzzyMatch(ctx context.Context, source, candidate *models.Provider) bool {
	if normalize.State(source.State) == "" {
		return false
	}
	if normalize.State(source.State) != normalize.State(candidate.State) {
		return false
	}
	if c.nameSimilarity(source, candidate) < c.config.FuzzySimilarity {
		return false
	}

	// Records without resolvable locations stay fuzzy-eligible on name and
	// state alone; the distance gate only applies when both sides resolve.
	dist := c.distance(ctx, source, candidate)
	if dist == nil {
		return true
	}
	return *dist <= c.config.FuzzyMaxDistanceMiles
}

// nameSimilarity takes the best Jaro-Winkler score across the cross product of
// both records' names, so a provider name on one side can match the practice
// name on the other.
func (c *Classifier) nameSimilarity(source, candidate *models.Provider) float64 {
	best := 0.0
	for _, a := range source.Names() {
		na := normalize.Name(a)
		if na == "" {
			continue
		}
		for _, b := range candidate.Names() {
			nb := normalize.Name(b)
			if nb == "" {
				continue
			}
			if score := c.scorer.JaroWinkler(na, nb); score > best {
				best = score
			}
		}
	}
	return best
}

// distance returns the great-circle distance between the two records, falling
// back to ZIP centroids for records without coordinates. Nil when either side
// cannot be located.
func (c *Classifier) distance(ctx context.Context, source, candidate *models.Provider) *float64 {
	a := c.locate(ctx, source)
	if a == nil {
		return nil
	}
	b := c.locate(ctx, candidate)
	if b == nil {
		return nil
	}
	d := geo.HaversineMiles(*a, *b)
	return &d
}

func (c *Classifier) locate(ctx context.Context, p *models.Provider) *geo.Coordinate {
	if coord := p.Coordinate(); coord != nil {
		return coord
	}
	if c.coords == nil {
		return nil
	}
	zip := normalize.ZipCode(p.ZipCode)
	if zip == "" {
		return nil
	}
	return c.coords.ForwardZip(ctx, zip)
}

// donorFee returns the candidate's fee when it is a known positive amount.
// A free membership has nothing to donate; an unknown fee is nil.
func donorFee(candidate *models.Provider) *float64 {
	if candidate.MonthlyFee == nil || *candidate.MonthlyFee <= 0 {
		return nil
	}
	fee := *candidate.MonthlyFee
	return &fee
}
