// internal/domain/models/donor.go
package models

// DonorRecord is a donor row as returned by the hosted backend.
//
// The record is PII-bearing: everything except State and the aggregate
// amount fields is subject to masking before it reaches a non-admin user
// (see system/piimask). State survives masking deliberately; state-level
// aggregation stays visible while street-level precision is removed.
type DonorRecord struct {
	DonorName  string `json:"donor_name"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	DonorEmail string `json:"donor_email"`
	Phone      string `json:"phone"`
	Addr1      string `json:"addr1"`
	City       string `json:"city"`
	State      string `json:"state"`
	TotalCents int64  `json:"total_cents"`
	GiftCount  int    `json:"gift_count"`
	LastGiftAt string `json:"last_gift_at,omitempty"` // ISO date from the backend
}
