// internal/domain/models/org.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Org represents a client organization (a campaign, PAC, or advocacy group).
//
// BackendOrgID is the organization's identifier at the hosted analytics
// backend; all RPC calls are scoped by it. Timezone is the IANA zone in
// which the org's "today" and day/hour bucketing are defined. The backend
// buckets in this zone; the portal never converts.
type Org struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	BackendOrgID string             `bson:"backend_org_id" json:"backend_org_id"`
	Timezone     string             `bson:"timezone" json:"timezone"` // IANA zone, e.g. "America/New_York"
	Status       string             `bson:"status,omitempty" json:"status,omitempty"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultTimezone is used when an org has no timezone configured.
// Bootstrap overrides it from the default_org_timezone config key.
var DefaultTimezone = "America/New_York"

// ReportingTimezone returns the org's IANA timezone, falling back to the
// default when unset.
func (o *Org) ReportingTimezone() string {
	if o.Timezone == "" {
		return DefaultTimezone
	}
	return o.Timezone
}
