// Package types provides type definitions for structured data used throughout the NAP verification system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// Address is the structured postal address of a business.
type Address struct {
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	Street     string `json:"street"`
}

// Full joins the address parts the way listing sites usually print them.
func (a Address) Full() string {
	return a.Prefecture + a.City + a.Street
}

// CanonicalRecord is the authoritative Name/Address/Phone triple for one business.
// The verification engine only reads it.
type CanonicalRecord struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Address    Address   `json:"address"`
	Phone      string    `json:"phone"`
	Importance string    `json:"importance"` // high, medium, low
	UpdatedAt  time.Time `json:"updated_at"`
}

// Site describes a third-party listing site.
type Site struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	SearchTemplate  string    `json:"search_template,omitempty"`
	SEOImpact       string    `json:"seo_impact,omitempty"` // large, medium, small, none
	RequiresBrowser bool      `json:"requires_browser,omitempty"`
}

// OldNapSnapshot is a historical NAP value kept to recognise stale listings.
type OldNapSnapshot struct {
	ID         uuid.UUID `json:"id"`
	RecordID   uuid.UUID `json:"record_id"`
	OldName    *string   `json:"old_name,omitempty"`
	OldAddress *string   `json:"old_address,omitempty"`
	OldPhone   *string   `json:"old_phone,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// Caller identifies who triggered an engine operation.
type Caller struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

// Caller roles
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// CanTrigger reports whether the caller may start verifications or edit listings.
func (c Caller) CanTrigger() bool {
	return c.UserID != uuid.Nil && (c.Role == RoleAdmin || c.Role == RoleOperator)
}
