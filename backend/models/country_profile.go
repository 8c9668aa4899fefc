package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the review state of a CountryProfile.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists every status in summary-bucket order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusDraft}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CountryProfile is a per-country marketing record submitted for review.
// Slug is NULL while unassigned and after rejection, so the unique index
// only constrains live records.
type CountryProfile struct {
	ID   string  `gorm:"primaryKey;size:36" json:"id"`
	Name string  `gorm:"not null" json:"name"`
	Slug *string `gorm:"uniqueIndex" json:"slug"`

	ProfileFields

	References    []string `gorm:"serializer:json;type:text" json:"references"`
	ImageURL      string   `json:"image_url,omitempty"`
	ImagePublicID string   `gorm:"index" json:"image_public_id,omitempty"`

	Status        Status     `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionNote string     `json:"rejection_note,omitempty"`
	OwnerID       string     `gorm:"size:36;not null;index" json:"owner_id"`
	Owner         *Account   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ReviewedByID  *string    `gorm:"size:36" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProfileFields are the free-form business fields of a profile.
type ProfileFields struct {
	Overview            string `json:"overview"`
	Region              string `json:"region"`
	Capital             string `json:"capital"`
	Currency            string `json:"currency"`
	Languages           string `json:"languages"`
	TimeZone            string `json:"time_zone"`
	Population          string `json:"population"`
	InternetPenetration string `json:"internet_penetration"`
	BroadbandSpeedRange string `json:"broadband_speed_range"`
	MobileSpeedRange    string `json:"mobile_speed_range"`
	DIAPriceRange       string `json:"dia_price_range"`
	BroadbandPriceRange string `json:"broadband_price_range"`
	LeadTimeRange       string `json:"lead_time_range"`
	SLAUptime           string `json:"sla_uptime"`
	RegulatoryNotes     string `json:"regulatory_notes"`
	Featured            bool   `json:"featured"`
}

// BeforeCreate assigns a UUID and normalizes nil references.
func (p *CountryProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.References == nil {
		p.References = []string{}
	}
	return nil
}

// SlugValue returns the slug or "" when unassigned.
func (p *CountryProfile) SlugValue() string {
	if p.Slug == nil {
		return ""
	}
	return *p.Slug
}

// StatusCounts holds per-status counts.
type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
