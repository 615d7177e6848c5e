package domain

// Source identifies which register an uploaded workbook belongs to.
type Source string

const (
	// SourceClaims is the processed claims register ("Klaim").
	SourceClaims Source = "klaim"
	// SourceOutstanding is the outstanding claims register ("OS Klaim").
	SourceOutstanding Source = "os"
)

// Valid reports whether s names a known register.
func (s Source) Valid() bool {
	return s == SourceClaims || s == SourceOutstanding
}

// Label returns the provenance label written to the Sumber Data column.
func (s Source) Label() string {
	switch s {
	case SourceClaims:
		return CategoryClaims
	case SourceOutstanding:
		return CategoryOutstanding
	default:
		return string(s)
	}
}

// Kategori values assigned by reconciliation.
const (
	CategoryClaims      = "Klaim"
	CategoryOutstanding = "OS Klaim"
	CategoryBoth        = "Klaim + OS Klaim"
)

// Categories lists every Kategori value in display order.
var Categories = []string{CategoryClaims, CategoryOutstanding, CategoryBoth}

// Column names used by the claims pipeline.
const (
	// Claims register
	ColClaimsPolicy      = "NO POLIS"
	ColClaimsCertificate = "NO SERTIFIKAT"
	ColClaimsClaim       = "NO KLAIM"

	// Outstanding register
	ColOutstandingPolicy = "POLICY NO"
	ColOutstandingClaim  = "CLAIM NO"

	// Canonical schema
	ColPolicy        = "POLIS"
	ColClaim         = "KLAIM"
	ColCertificate   = "SERTIFIKAT"
	ColCauseOfLoss   = "CAUSE OF LOSS"
	ColInceptionDate = "INCEPTION DATE"
	ColExpiryDate    = "EXPIRY DATE"
	ColDOL           = "DOL"
	ColClaimAmount   = "CLAIM AMOUNT (IDR)"
	ColTypeOfCover   = "TOC_MOD"
	ColSource        = "Sumber Data"
	ColCategory      = "Kategori"

	// Derived features
	ColMonthsSinceInception = "Bulan ke-"
	ColClaimRange           = "Range Terjadi Klaim"
	ColCauseCategory        = "Kategori Cause of Loss"
	ColCoverage             = "Coverage"
)

// Claim age bucket labels in ascending order.
const (
	RangeUpTo3   = "0-3"
	RangeUpTo6   = ">3-6"
	RangeUpTo9   = ">6-9"
	RangeUpTo12  = ">9-12"
	RangeOver12  = ">12"
	AmountScale  = 1_000_000
	TopCausesMax = 10
)

// RangeLabels lists the claim age buckets in ascending order.
var RangeLabels = []string{RangeUpTo3, RangeUpTo6, RangeUpTo9, RangeUpTo12, RangeOver12}

// RangeOrder returns the position of label in RangeLabels, or -1.
func RangeOrder(label string) int {
	for i, l := range RangeLabels {
		if l == label {
			return i
		}
	}
	return -1
}
