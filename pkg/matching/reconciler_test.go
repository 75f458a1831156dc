package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

func TestReconciler_ReconcileAll(t *testing.T) {
	ctx := context.Background()
	classifier := NewClassifier(testLogger(), nil, DefaultConfig())

	t.Run("one verdict per source in source order", func(t *testing.T) {
		r := NewReconciler(testLogger(), classifier, DefaultReconcilerConfig())

		sources := []*models.Provider{
			{ID: "s-1", TenantID: "t1", Name: "Jane Smith", Website: strPtr("smithdpc.com")},
			{ID: "s-2", TenantID: "t1", Name: "Acme Clinic", Address: "12 Elm St", City: "Austin", State: "TX"},
		}
		candidates := []*models.Provider{
			{ID: "c-1", Name: "Smith DPC", Website: strPtr("https://www.smithdpc.com"), MonthlyFee: floatPtr(75)},
			{ID: "c-2", Name: "Zenith Clinic", Address: "900 Pine Ave", City: "Austin", State: "TX"},
		}

		verdicts, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)
		require.Len(t, verdicts, 2)

		assert.Equal(t, "s-1", verdicts[0].SourceProviderID)
		assert.Equal(t, models.MatchTierExactWebsite, verdicts[0].Tier)
		assert.Equal(t, 100, verdicts[0].Confidence)
		require.NotNil(t, verdicts[0].CandidateProviderID)
		assert.Equal(t, "c-1", *verdicts[0].CandidateProviderID)
		assert.True(t, verdicts[0].FeeEligible)

		assert.Equal(t, "s-2", verdicts[1].SourceProviderID)
		assert.Equal(t, models.MatchTierNone, verdicts[1].Tier)
		assert.Equal(t, 0, verdicts[1].Confidence)
		assert.Nil(t, verdicts[1].CandidateProviderID)
		assert.False(t, verdicts[1].FeeEligible)
	})

	t.Run("deterministic across repeated runs", func(t *testing.T) {
		r := NewReconciler(testLogger(), classifier, ReconcilerConfig{Workers: 8, ConfidenceThreshold: 85})

		sources := make([]*models.Provider, 0, 20)
		for i := 0; i < 20; i++ {
			sources = append(sources, &models.Provider{
				ID: string(rune('a'+i)), TenantID: "t1",
				Name: "Jane Smyth", City: "Austin", State: "TX",
			})
		}
		candidates := []*models.Provider{
			{ID: "c-1", Name: "Jane Smith", City: "Waco", State: "TX"},
		}

		first, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)
		second, err := r.ReconcileAll(ctx, sources, candidates, 85)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty source set", func(t *testing.T) {
		r := NewReconciler(testLogger(), classifier, DefaultReconcilerConfig())
		verdicts, err := r.ReconcileAll(ctx, nil, nil, 85)
		require.NoError(t, err)
		assert.Empty(t, verdicts)
	})

	t.Run("cancelled context aborts the run", func(t *testing.T) {
		r := NewReconciler(testLogger(), classifier, DefaultReconcilerConfig())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.ReconcileAll(cancelled, []*models.Provider{{ID: "s-1", Name: "Jane"}}, nil, 85)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReconciler_FeeEligibility(t *testing.T) {
	ctx := context.Background()
	classifier := NewClassifier(testLogger(), nil, DefaultConfig())
	r := NewReconciler(testLogger(), classifier, DefaultReconcilerConfig())

	run := func(t *testing.T, source, candidate *models.Provider, threshold int) models.MatchVerdict {
		t.Helper()
		verdicts, err := r.ReconcileAll(ctx, []*models.Provider{source}, []*models.Provider{candidate}, threshold)
		require.NoError(t, err)
		require.Len(t, verdicts, 1)
		return verdicts[0]
	}

	t.Run("eligible when match clears threshold and source fee unknown", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smith", Website: strPtr("smithdpc.com")},
			&models.Provider{ID: "c", Name: "Smith DPC", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(99)},
			85,
		)
		assert.True(t, v.FeeEligible)
		require.NotNil(t, v.DonorFee)
		assert.Equal(t, 99.0, *v.DonorFee)
	})

	t.Run("not eligible below threshold", func(t *testing.T) {
		// Fuzzy match scores 70, under the 85 threshold.
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smyth", City: "Austin", State: "TX"},
			&models.Provider{ID: "c", Name: "Jane Smith", City: "Waco", State: "TX", MonthlyFee: floatPtr(99)},
			85,
		)
		assert.Equal(t, models.MatchTierFuzzy, v.Tier)
		assert.False(t, v.FeeEligible)
	})

	t.Run("threshold override can admit lower tiers", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smyth", City: "Austin", State: "TX"},
			&models.Provider{ID: "c", Name: "Jane Smith", City: "Waco", State: "TX", MonthlyFee: floatPtr(99)},
			70,
		)
		assert.True(t, v.FeeEligible)
	})

	t.Run("source with known fee keeps it", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smith", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(50)},
			&models.Provider{ID: "c", Name: "Smith DPC", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(99)},
			85,
		)
		assert.False(t, v.FeeEligible)
	})

	t.Run("source with known free membership keeps it", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smith", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(0)},
			&models.Provider{ID: "c", Name: "Smith DPC", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(99)},
			85,
		)
		assert.False(t, v.FeeEligible)
	})

	t.Run("no donor fee means not eligible", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smith", Website: strPtr("smithdpc.com")},
			&models.Provider{ID: "c", Name: "Smith DPC", Website: strPtr("smithdpc.com")},
			85,
		)
		assert.Equal(t, 100, v.Confidence)
		assert.Nil(t, v.DonorFee)
		assert.False(t, v.FeeEligible)
	})

	t.Run("free candidate donates nothing", func(t *testing.T) {
		v := run(t,
			&models.Provider{ID: "s", Name: "Jane Smith", Website: strPtr("smithdpc.com")},
			&models.Provider{ID: "c", Name: "Smith DPC", Website: strPtr("smithdpc.com"), MonthlyFee: floatPtr(0)},
			85,
		)
		assert.Nil(t, v.DonorFee)
		assert.False(t, v.FeeEligible)
	})
}
