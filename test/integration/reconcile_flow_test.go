package integration

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/fingerprint"
	"github.com/Ramsey-B/yarrow/pkg/matching"
	"github.com/Ramsey-B/yarrow/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func newReconciler() *matching.Reconciler {
	classifier := matching.NewClassifier(testLogger(), nil, matching.DefaultConfig())
	return matching.NewReconciler(testLogger(), classifier, matching.DefaultReconcilerConfig())
}

// TestReconcileFlow_Scenarios walks two directory snapshots through a full
// reconciliation run and checks the verdict each pairing lands on.
func TestReconcileFlow_Scenarios(t *testing.T) {
	ctx := context.Background()
	r := newReconciler()

	t.Run("WebsiteBeatsDivergentIdentity", func(t *testing.T) {
		sources := []*models.Provider{{
			ID: "s-1", TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-1",
			Name:    "Jane Smith, MD",
			Website: strPtr("https://www.smithdpc.com/"),
			Address: "123 Main St", City: "Austin", State: "TX", ZipCode: "78701",
		}}
		candidates := []*models.Provider{{
			ID: "c-1", TenantID: "t1", Source: "mapper", SourceKey: "m-9",
			Name:       "Smith Direct Primary Care",
			Website:    strPtr("http://smithdpc.com"),
			Address:    "99 Different Rd", City: "Round Rock", State: "TX", ZipCode: "78664",
			MonthlyFee: floatPtr(85),
		}}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)
		require.Len(t, verdicts, 1)

		v := verdicts[0]
		assert.Equal(t, models.MatchTierExactWebsite, v.Tier)
		assert.Equal(t, 100, v.Confidence)
		require.NotNil(t, v.DonorFee)
		assert.Equal(t, 85.0, *v.DonorFee)
		assert.True(t, v.FeeEligible)
		assert.True(t, v.IsMatch())
	})

	t.Run("SharedAddressWithoutWebsite", func(t *testing.T) {
		sources := []*models.Provider{{
			ID: "s-1", TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-2",
			Name:    "Riverbend Wellness",
			Address: "450 Oak Avenue", City: "Dallas", State: "TX", ZipCode: "75201",
		}}
		candidates := []*models.Provider{{
			ID: "c-1", TenantID: "t1", Source: "mapper", SourceKey: "m-2",
			Name:    "J. Rivera",
			Address: "450 Oak Ave.", City: "Dallas", State: "TX", ZipCode: "75201",
		}}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)

		v := verdicts[0]
		assert.Equal(t, models.MatchTierExactAddress, v.Tier)
		assert.Equal(t, 95, v.Confidence)
		assert.Nil(t, v.DonorFee)
		assert.False(t, v.FeeEligible)
	})

	t.Run("SameCitySimilarName", func(t *testing.T) {
		sources := []*models.Provider{{
			ID: "s-1", TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-3",
			Name:    "Dr. Maria Gonzalez",
			Address: "1 First St", City: "El Paso", State: "TX",
		}}
		candidates := []*models.Provider{{
			ID: "c-1", TenantID: "t1", Source: "mapper", SourceKey: "m-3",
			Name:       "Maria Gonzalez, M.D.",
			Address:    "800 Mesa Blvd", City: "El Paso", State: "TX",
			MonthlyFee: floatPtr(60),
		}}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)

		v := verdicts[0]
		assert.Equal(t, models.MatchTierNameLocation, v.Tier)
		assert.Equal(t, 85, v.Confidence)
		assert.True(t, v.FeeEligible, "name_location meets the default threshold")
	})

	t.Run("NearbyFuzzyMatchStaysBelowThreshold", func(t *testing.T) {
		sources := []*models.Provider{{
			ID: "s-1", TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-4",
			Name: "Jane Smyth", City: "Austin", State: "TX",
			Latitude: floatPtr(30.2672), Longitude: floatPtr(-97.7431),
		}}
		candidates := []*models.Provider{{
			ID: "c-1", TenantID: "t1", Source: "mapper", SourceKey: "m-4",
			Name: "Jane Smith", City: "Pflugerville", State: "TX",
			Latitude: floatPtr(30.3672), Longitude: floatPtr(-97.7431),
			MonthlyFee: floatPtr(75),
		}}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)

		v := verdicts[0]
		assert.Equal(t, models.MatchTierFuzzy, v.Tier)
		assert.Equal(t, 70, v.Confidence)
		require.NotNil(t, v.DistanceMiles)
		assert.Less(t, *v.DistanceMiles, 10.0)
		assert.False(t, v.FeeEligible, "fuzzy confidence stays under the propagation threshold")
	})

	t.Run("UnrelatedRecordsProduceNoMatch", func(t *testing.T) {
		sources := []*models.Provider{{
			ID: "s-1", TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-5",
			Name: "Acme Clinic", Address: "12 Elm St", City: "Austin", State: "TX",
		}}
		candidates := []*models.Provider{{
			ID: "c-1", TenantID: "t1", Source: "mapper", SourceKey: "m-5",
			Name: "Zenith Clinic", Address: "3 Birch Ln", City: "Seattle", State: "WA",
			MonthlyFee: floatPtr(120),
		}}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)

		v := verdicts[0]
		assert.Equal(t, models.MatchTierNone, v.Tier)
		assert.Equal(t, 0, v.Confidence)
		assert.Nil(t, v.CandidateProviderID)
		assert.Nil(t, v.DonorFee)
		assert.False(t, v.IsMatch())
	})
}

// TestReconcileFlow_FeePropagation checks the donor-fee decisions across a
// mixed batch in one run.
func TestReconcileFlow_FeePropagation(t *testing.T) {
	ctx := context.Background()
	r := newReconciler()

	sources := []*models.Provider{
		// Unknown fee, strong match with a paying donor: eligible.
		{ID: "s-1", TenantID: "t1", Name: "Jane Smith", Website: strPtr("smithdpc.com")},
		// Known free membership: keeps it even on a perfect match.
		{ID: "s-2", TenantID: "t1", Name: "John Adams", Website: strPtr("adamsdpc.com"), MonthlyFee: floatPtr(0)},
		// Unknown fee but the donor is free: nothing to propagate.
		{ID: "s-3", TenantID: "t1", Name: "Ana Lopez", Website: strPtr("lopezdpc.com")},
	}
	candidates := []*models.Provider{
		{ID: "c-1", Name: "Smith DPC", Website: strPtr("https://smithdpc.com"), MonthlyFee: floatPtr(85)},
		{ID: "c-2", Name: "Adams DPC", Website: strPtr("https://adamsdpc.com"), MonthlyFee: floatPtr(99)},
		{ID: "c-3", Name: "Lopez DPC", Website: strPtr("https://lopezdpc.com"), MonthlyFee: floatPtr(0)},
	}

	verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	assert.True(t, verdicts[0].FeeEligible)
	require.NotNil(t, verdicts[0].DonorFee)
	assert.Equal(t, 85.0, *verdicts[0].DonorFee)

	assert.Equal(t, 100, verdicts[1].Confidence)
	assert.False(t, verdicts[1].FeeEligible)

	assert.Equal(t, 100, verdicts[2].Confidence)
	assert.Nil(t, verdicts[2].DonorFee)
	assert.False(t, verdicts[2].FeeEligible)
}

// TestReconcileFlow_RescrapeFingerprint mirrors what the ingestion path does
// with a re-scraped record: identical content keeps the stored fingerprint,
// changed content replaces it.
func TestReconcileFlow_RescrapeFingerprint(t *testing.T) {
	original := &models.Provider{
		TenantID: "t1", Source: "dpc-frontier", SourceKey: "f-1",
		Name: "Jane Smith", City: "Austin", State: "TX", ZipCode: "78701",
		MonthlyFee: floatPtr(85),
	}
	stored := fingerprint.Generate(original)

	t.Run("UnchangedRescrape", func(t *testing.T) {
		rescrape := *original
		assert.False(t, fingerprint.HasChanged(stored, fingerprint.Generate(&rescrape)))
	})

	t.Run("FeeChangeDetected", func(t *testing.T) {
		rescrape := *original
		rescrape.MonthlyFee = floatPtr(95)
		assert.True(t, fingerprint.HasChanged(stored, fingerprint.Generate(&rescrape)))
	})
}
