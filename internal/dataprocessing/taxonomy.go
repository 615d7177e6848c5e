package dataprocessing

import (
	"math"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Cause of loss categories.
const (
	CauseActOfGod      = "Act of God"
	CauseFire          = "Kebakaran"
	CauseRiot          = "Huru-hara, Kerusuhan, Kebongkaran"
	CauseShortCircuit  = "Hubungan Arus Pendek"
	CauseExplosion     = "Ledakan"
	CauseWaterDamage   = "Water Damage"
	CauseVehicleImpact = "Vehicle Impact"
	CauseOther         = "Lain-lain"
)

// CauseTaxonomy maps a free-text cause of loss to its category. Lookups are
// exact; unknown causes have no category.
type CauseTaxonomy map[string]string

// DefaultCauseTaxonomy is the fixed property cause of loss table.
func DefaultCauseTaxonomy() CauseTaxonomy {
	return CauseTaxonomy{
		"Angin Topan":                          CauseActOfGod,
		"Badai":                                CauseActOfGod,
		"Gempa Bumi":                           CauseActOfGod,
		"Longsor":                              CauseActOfGod,
		"Petir":                                CauseActOfGod,
		"Banjir":                               CauseActOfGod,
		"Letusan Gunung Berapi":                CauseActOfGod,
		"Kebakaran":                            CauseFire,
		"Huru-Hara":                            CauseRiot,
		"Kerusuhan":                            CauseRiot,
		"Kebongkaran":                          CauseRiot,
		"Hubungan Arus Pendek":                 CauseShortCircuit,
		"Ledakan":                              CauseExplosion,
		"Rusak karena Air":                     CauseWaterDamage,
		"Tertabrak Kendaraan atau Alat Angkut": CauseVehicleImpact,
		"Lain-Lain":                            CauseOther,
	}
}

// Category returns the category of cause.
func (c CauseTaxonomy) Category(cause Value) (string, bool) {
	if cause.Kind() != KindString {
		return "", false
	}
	cat, ok := c[cause.String()]
	return cat, ok
}

// Bucket is a half-open interval (previous Upper, Upper] of months.
type Bucket struct {
	Label string
	Upper float64
}

// DefaultBuckets partitions the whole number line into the claim age ranges.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Label: domain.RangeUpTo3, Upper: 3},
		{Label: domain.RangeUpTo6, Upper: 6},
		{Label: domain.RangeUpTo9, Upper: 9},
		{Label: domain.RangeUpTo12, Upper: 12},
		{Label: domain.RangeOver12, Upper: math.Inf(1)},
	}
}

// Bucketize returns the label of the first bucket whose upper bound is at
// least months. The first bucket is open below.
func Bucketize(buckets []Bucket, months int) (string, bool) {
	m := float64(months)
	for _, b := range buckets {
		if m <= b.Upper {
			return b.Label, true
		}
	}
	return "", false
}
