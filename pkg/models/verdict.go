package models

import "time"

// MatchTier is the discrete confidence class a pairwise comparison lands in.
type MatchTier string

const (
	MatchTierExactWebsite MatchTier = "exact_website" // identical normalized website
	MatchTierExactAddress MatchTier = "exact_address" // identical normalized street+city+state+zip
	MatchTierNameLocation MatchTier = "name_location" // similar name, same city and state
	MatchTierFuzzy        MatchTier = "fuzzy"         // loosely similar name, same state, close or unlocated
	MatchTierNone         MatchTier = "none"          // no candidate satisfied any tier
)

// MatchVerdict is the outcome of classifying one source record against a
// candidate set: the winning tier, its confidence, the great-circle distance
// when both sides carry valid coordinates, and the candidate's fee when it
// can donate one.
type MatchVerdict struct {
	ID                  string    `json:"id" db:"id"`
	TenantID            string    `json:"tenant_id" db:"tenant_id"`
	SourceProviderID    string    `json:"source_provider_id" db:"source_provider_id"`
	CandidateProviderID *string   `json:"candidate_provider_id,omitempty" db:"candidate_provider_id"`
	Tier                MatchTier `json:"tier" db:"tier"`
	Confidence          int       `json:"confidence" db:"confidence"`
	DistanceMiles       *float64  `json:"distance_miles,omitempty" db:"distance_miles"`
	DonorFee            *float64  `json:"donor_fee,omitempty" db:"donor_fee"`
	FeeEligible         bool      `json:"fee_eligible" db:"fee_eligible"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// IsMatch reports whether any tier was satisfied.
func (v *MatchVerdict) IsMatch() bool {
	return v.Tier != MatchTierNone && v.Tier != ""
}

// ReconcileRequest is the request to run one provider set against another.
type ReconcileRequest struct {
	Source              string `json:"source" validate:"required"`
	CandidateSource     string `json:"candidate_source" validate:"required"`
	ConfidenceThreshold *int   `json:"confidence_threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	Apply               bool   `json:"apply"`
}

// ReconcileResponse summarizes a reconciliation run.
type ReconcileResponse struct {
	Verdicts       []MatchVerdict `json:"verdicts"`
	SourceCount    int            `json:"source_count"`
	CandidateCount int            `json:"candidate_count"`
	MatchCount     int            `json:"match_count"`
	FeesPropagated int            `json:"fees_propagated"`
}
