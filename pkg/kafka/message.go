package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

// ScrapedProviderMessage is the payload scrapers publish for each record they
// extract from a directory.
type ScrapedProviderMessage struct {
	Action    string   `json:"action"` // upserted, deleted
	TenantID  string   `json:"tenant_id"`
	Source    string   `json:"source"`
	SourceKey string   `json:"source_key"`
	ScrapedAt string   `json:"scraped_at,omitempty"`
	Provider  *models.UpsertProviderRequest `json:"provider,omitempty"`
}

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Scraped *ScrapedProviderMessage
}

// ParseScrapedProvider parses the message value as a scraped provider message
func (m *IncomingMessage) ParseScrapedProvider() error {
	var msg ScrapedProviderMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return err
	}
	m.Scraped = &msg
	return nil
}

// GetTenantID returns the tenant ID from the message body, falling back to
// the header set by the scraper.
func (m *IncomingMessage) GetTenantID() string {
	if m.Scraped != nil && m.Scraped.TenantID != "" {
		return m.Scraped.TenantID
	}
	return m.Headers["tenant_id"]
}

// GetSource returns the directory the record came from.
func (m *IncomingMessage) GetSource() string {
	if m.Scraped != nil && m.Scraped.Source != "" {
		return m.Scraped.Source
	}
	return m.Headers["source"]
}

// IsDelete reports whether the scraper observed the listing disappear.
func (m *IncomingMessage) IsDelete() bool {
	return m.Scraped != nil && m.Scraped.Action == "deleted"
}
