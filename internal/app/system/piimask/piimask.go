// Package piimask redacts donor personally identifiable information for
// portal users whose role does not allow raw PII. Admins see donor records
// as stored; analysts see the masked rendering.
//
// Masking reduces precision instead of deleting fields: names keep their
// initials, emails keep two characters and the domain, phones keep the
// last four digits, and state is always preserved so state-level rollups
// still work. Amounts and gift history are not PII and pass through.
package piimask

import (
	"strings"

	"github.com/bluewavedigital/donorpulse/internal/domain/models"
)

// AddrPlaceholder replaces street addresses on the masked branch.
const AddrPlaceholder = "[Address Withheld]"

// Record returns rec unchanged (same pointer) when shouldMask is false,
// or a newly allocated masked copy when true. The input is never mutated.
func Record(rec *models.DonorRecord, shouldMask bool) *models.DonorRecord {
	if !shouldMask || rec == nil {
		return rec
	}

	masked := *rec
	masked.DonorName = maskName(rec.DonorName)
	masked.FirstName = maskName(rec.FirstName)
	masked.LastName = maskName(rec.LastName)
	masked.DonorEmail = maskEmail(rec.DonorEmail)
	masked.Phone = maskPhone(rec.Phone)
	if rec.Addr1 != "" {
		masked.Addr1 = AddrPlaceholder
	}
	if rec.City != "" {
		masked.City = "***"
	}
	// State stays as-is: geography is coarsened, not removed.
	return &masked
}

// Records masks a whole result set. When shouldMask is false the input
// slice is returned as-is.
func Records(recs []models.DonorRecord, shouldMask bool) []models.DonorRecord {
	if !shouldMask {
		return recs
	}
	out := make([]models.DonorRecord, len(recs))
	for i := range recs {
		out[i] = *Record(&recs[i], true)
	}
	return out
}

// maskName reduces each whitespace-separated word to its first rune
// followed by "***". "Jane Doe" becomes "J*** D***".
func maskName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, len(fields))
	for i, w := range fields {
		r := []rune(w)
		parts[i] = string(r[0]) + "***"
	}
	return strings.Join(parts, " ")
}

// maskEmail keeps up to two characters of the local part and the full
// domain. Anything that does not look like local@domain collapses to the
// fully opaque form.
func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***@***.***"
	}
	local := email[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***@" + email[at+1:]
}

// maskPhone keeps only the last four digits in a fixed "***-***-NNNN"
// shape, regardless of the input's formatting.
func maskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + string(digits[len(digits)-4:])
}
