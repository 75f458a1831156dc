package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomingMessage_ParseScrapedProvider(t *testing.T) {
	t.Run("parses an upsert payload", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"action": "upserted",
			"tenant_id": "t1",
			"source": "dpc-frontier",
			"source_key": "row-42",
			"provider": {
				"source": "dpc-frontier",
				"source_key": "row-42",
				"name": "Jane Smith",
				"city": "Austin",
				"state": "TX",
				"zip_code": "78701",
				"monthly_fee": 85
			}
		}`)}

		require.NoError(t, msg.ParseScrapedProvider())
		require.NotNil(t, msg.Scraped)
		assert.Equal(t, "upserted", msg.Scraped.Action)
		assert.False(t, msg.IsDelete())

		require.NotNil(t, msg.Scraped.Provider)
		assert.Equal(t, "Jane Smith", msg.Scraped.Provider.Name)
		require.NotNil(t, msg.Scraped.Provider.MonthlyFee)
		assert.Equal(t, 85.0, *msg.Scraped.Provider.MonthlyFee)
	})

	t.Run("parses a delete payload without a provider body", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"action": "deleted",
			"tenant_id": "t1",
			"source": "dpc-frontier",
			"source_key": "row-42"
		}`)}

		require.NoError(t, msg.ParseScrapedProvider())
		assert.True(t, msg.IsDelete())
		assert.Nil(t, msg.Scraped.Provider)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{not json`)}
		assert.Error(t, msg.ParseScrapedProvider())
		assert.Nil(t, msg.Scraped)
	})
}

func TestIncomingMessage_TenantAndSource(t *testing.T) {
	t.Run("body values win over headers", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"tenant_id": "header-tenant", "source": "header-source"},
			Scraped: &ScrapedProviderMessage{TenantID: "t1", Source: "dpc-frontier"},
		}
		assert.Equal(t, "t1", msg.GetTenantID())
		assert.Equal(t, "dpc-frontier", msg.GetSource())
	})

	t.Run("falls back to headers", func(t *testing.T) {
		msg := &IncomingMessage{
			Headers: map[string]string{"tenant_id": "header-tenant", "source": "header-source"},
			Scraped: &ScrapedProviderMessage{},
		}
		assert.Equal(t, "header-tenant", msg.GetTenantID())
		assert.Equal(t, "header-source", msg.GetSource())
	})

	t.Run("empty when neither is present", func(t *testing.T) {
		msg := &IncomingMessage{Headers: map[string]string{}}
		assert.Equal(t, "", msg.GetTenantID())
	})
}
