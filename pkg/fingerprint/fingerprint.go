// Package fingerprint produces deterministic content hashes for provider
// records so re-scrapes can skip records that did not change.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

// matchable is the canonical subset of provider fields that participate in
// matching. Struct encoding keeps key order fixed, so the hash is stable.
type matchable struct {
	Source       string   `json:"source"`
	SourceKey    string   `json:"source_key"`
	Name         string   `json:"name"`
	PracticeName *string  `json:"practice_name"`
	Website      *string  `json:"website"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	MonthlyFee   *float64 `json:"monthly_fee"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Generate creates a SHA256 fingerprint of the provider's matchable fields.
// Timestamps and identifiers assigned by this system are excluded.
func Generate(p *models.Provider) string {
	canonical, _ := json.Marshal(matchable{
		Source:       p.Source,
		SourceKey:    p.SourceKey,
		Name:         p.Name,
		PracticeName: p.PracticeName,
		Website:      p.Website,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		ZipCode:      p.ZipCode,
		MonthlyFee:   p.MonthlyFee,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
	})

	hash := sha256.Sum256(canonical)
	return hex.EncodeToString(hash[:])
}

// HasChanged compares two fingerprints to detect changes
func HasChanged(oldFingerprint, newFingerprint string) bool {
	return oldFingerprint != newFingerprint
}
