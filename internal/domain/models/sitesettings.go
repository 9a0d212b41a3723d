// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteSettings holds site-wide configuration that can be edited by admins.
type SiteSettings struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`

	// Display settings
	SiteName string `bson:"site_name" json:"site_name"` // Name shown in menu header

	// Landing page (the "/" route)
	LandingTitle   string `bson:"landing_title,omitempty" json:"landing_title,omitempty"`     // Title shown on landing page
	LandingContent string `bson:"landing_content,omitempty" json:"landing_content,omitempty"` // HTML content for landing page

	// Footer
	FooterHTML string `bson:"footer_html,omitempty" json:"footer_html,omitempty"` // Custom HTML for footer

	// Audit fields
	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}

// DefaultSiteName is the default site name used when settings don't exist.
const DefaultSiteName = "DonorPulse"

// DefaultFooterHTML is the default footer text.
const DefaultFooterHTML = "Powered by DonorPulse"

// DefaultLandingTitle is the default landing page title.
const DefaultLandingTitle = "Welcome"

// DefaultLandingContent is the default landing page content.
const DefaultLandingContent = `<p>Welcome to the DonorPulse client portal. Sign in to view your
organization's donation analytics, donor lists, and exports.</p>
<p>An administrator can customize this page.</p>`
