package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func sampleProvider() *models.Provider {
	return &models.Provider{
		ID:         "id-1",
		TenantID:   "t1",
		Source:     "dpc-frontier",
		SourceKey:  "row-42",
		Name:       "Jane Smith",
		Website:    strPtr("smithdpc.com"),
		Address:    "123 Main St",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78701",
		MonthlyFee: floatPtr(85),
	}
}

func TestGenerate(t *testing.T) {
	t.Run("deterministic for identical content", func(t *testing.T) {
		assert.Equal(t, Generate(sampleProvider()), Generate(sampleProvider()))
	})

	t.Run("changes when a matchable field changes", func(t *testing.T) {
		base := Generate(sampleProvider())

		changed := sampleProvider()
		changed.MonthlyFee = floatPtr(95)
		assert.NotEqual(t, base, Generate(changed))

		renamed := sampleProvider()
		renamed.Name = "Jane Smyth"
		assert.NotEqual(t, base, Generate(renamed))
	})

	t.Run("nil and zero fee hash differently", func(t *testing.T) {
		unknown := sampleProvider()
		unknown.MonthlyFee = nil
		free := sampleProvider()
		free.MonthlyFee = floatPtr(0)

		assert.NotEqual(t, Generate(unknown), Generate(free))
	})

	t.Run("ignores system assigned fields", func(t *testing.T) {
		base := Generate(sampleProvider())

		p := sampleProvider()
		p.ID = "different-id"
		p.Fingerprint = "stale"
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now().Add(time.Hour)
		assert.Equal(t, base, Generate(p))
	})
}

func TestHasChanged(t *testing.T) {
	a := Generate(sampleProvider())
	assert.False(t, HasChanged(a, a))
	assert.True(t, HasChanged(a, "something else"))
}
