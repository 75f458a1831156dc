package models

import (
	"time"

	"github.com/Ramsey-B/yarrow/pkg/geo"
)

// Provider represents one provider record scraped from a single directory
// source. The directories disagree on identifiers, spelling, and completeness,
// so every optional field is a pointer: nil means the directory did not carry
// it. A monthly fee of 0 is a legitimate free membership; unknown is nil.
type Provider struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	Source       string     `json:"source" db:"source"`         // directory the record was scraped from
	SourceKey    string     `json:"source_key" db:"source_key"` // stable key within that directory
	Name         string     `json:"name" db:"name"`
	PracticeName *string    `json:"practice_name,omitempty" db:"practice_name"`
	Website      *string    `json:"website,omitempty" db:"website"`
	Address      string     `json:"address" db:"address"`
	City         string     `json:"city" db:"city"`
	State        string     `json:"state" db:"state"`
	ZipCode      string     `json:"zip_code" db:"zip_code"`
	MonthlyFee   *float64   `json:"monthly_fee,omitempty" db:"monthly_fee"`
	Latitude     *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude    *float64   `json:"longitude,omitempty" db:"longitude"`
	Fingerprint  string     `json:"fingerprint" db:"fingerprint"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Coordinate returns the record's location when both axes are present and
// legal, nil otherwise. Malformed scraped coordinates are treated as absent.
func (p *Provider) Coordinate() *geo.Coordinate {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	c := geo.Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}
	if !c.Valid() {
		return nil
	}
	return &c
}

// HasKnownFee reports whether the record carries a membership fee at all.
func (p *Provider) HasKnownFee() bool {
	return p.MonthlyFee != nil
}

// Names returns the display name plus the practice name when present, for
// cross-product similarity scoring.
func (p *Provider) Names() []string {
	names := []string{p.Name}
	if p.PracticeName != nil && *p.PracticeName != "" {
		names = append(names, *p.PracticeName)
	}
	return names
}

// UpsertProviderRequest is the request for creating/updating a scraped record.
type UpsertProviderRequest struct {
	Source       string   `json:"source" validate:"required"`
	SourceKey    string   `json:"source_key" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	PracticeName *string  `json:"practice_name,omitempty"`
	Website      *string  `json:"website,omitempty"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
	MonthlyFee   *float64 `json:"monthly_fee,omitempty" validate:"omitempty,gte=0"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// ToProvider builds the record the request describes for a tenant.
func (r *UpsertProviderRequest) ToProvider(tenantID string) *Provider {
	return &Provider{
		TenantID:     tenantID,
		Source:       r.Source,
		SourceKey:    r.SourceKey,
		Name:         r.Name,
		PracticeName: r.PracticeName,
		Website:      r.Website,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		ZipCode:      r.ZipCode,
		MonthlyFee:   r.MonthlyFee,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}

// ProviderListResponse is the response for listing providers.
type ProviderListResponse struct {
	Items      []Provider `json:"items"`
	TotalCount int        `json:"total_count"`
}

// ProviderDistance pairs a provider with its distance from a searched point.
type ProviderDistance struct {
	Provider      Provider `json:"provider"`
	DistanceMiles float64  `json:"distance_miles"`
}
