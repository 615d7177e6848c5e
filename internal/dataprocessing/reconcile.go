package dataprocessing

import (
	"strings"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// JoinKeySeparator joins policy and claim identifiers. The ASCII unit
// separator does not occur in spreadsheet identifiers.
const JoinKeySeparator = "\x1f"

// ReconcileStats counts distinct join keys per membership class.
type ReconcileStats struct {
	ClaimsOnly      int `json:"claims_only"`
	OutstandingOnly int `json:"outstanding_only"`
	Both            int `json:"both"`
	// MissingKeys counts rows without a policy or claim id.
	MissingKeys int `json:"missing_keys"`
	// SeparatorCollisions counts identifiers containing JoinKeySeparator.
	SeparatorCollisions int `json:"separator_collisions"`
}

// JoinKey returns the composite key of row i. ok is false when the policy
// or claim id is null, so two rows missing the same id never join.
func JoinKey(t *Table, i int) (key string, ok bool) {
	policy := t.Get(i, domain.ColPolicy)
	claim := t.Get(i, domain.ColClaim)
	if policy.IsNull() || claim.IsNull() {
		return "", false
	}
	return policy.String() + JoinKeySeparator + claim.String(), true
}

// Reconcile labels every row of claims and outstanding with its Kategori:
// rows whose join key appears in both tables get "Klaim + OS Klaim", the
// rest get their own register's label. The result does not depend on row
// order.
func Reconcile(claims, outstanding *Table) (*Table, *Table, ReconcileStats, error) {
	var stats ReconcileStats
	if err := claims.Require("reconcile", domain.ColPolicy, domain.ColClaim); err != nil {
		return nil, nil, stats, err
	}
	if err := outstanding.Require("reconcile", domain.ColPolicy, domain.ColClaim); err != nil {
		return nil, nil, stats, err
	}

	claimKeys := keySet(claims, &stats)
	osKeys := keySet(outstanding, &stats)

	both := make(map[string]struct{})
	for k := range claimKeys {
		if _, ok := osKeys[k]; ok {
			both[k] = struct{}{}
		}
	}
	stats.Both = len(both)
	stats.ClaimsOnly = len(claimKeys) - len(both)
	stats.OutstandingOnly = len(osKeys) - len(both)

	a, err := labelRows(claims, both, domain.CategoryClaims)
	if err != nil {
		return nil, nil, stats, err
	}
	b, err := labelRows(outstanding, both, domain.CategoryOutstanding)
	if err != nil {
		return nil, nil, stats, err
	}
	return a, b, stats, nil
}

func keySet(t *Table, stats *ReconcileStats) map[string]struct{} {
	keys := make(map[string]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		k, ok := JoinKey(t, i)
		if !ok {
			stats.MissingKeys++
			continue
		}
		if strings.Count(k, JoinKeySeparator) > 1 {
			stats.SeparatorCollisions++
		}
		keys[k] = struct{}{}
	}
	return keys
}

func labelRows(t *Table, both map[string]struct{}, exclusive string) (*Table, error) {
	labels := make([]Value, t.Len())
	for i := range labels {
		label := exclusive
		if k, ok := JoinKey(t, i); ok {
			if _, shared := both[k]; shared {
				label = domain.CategoryBoth
			}
		}
		labels[i] = StringValue(label)
	}
	return t.WithColumn(domain.ColCategory, labels)
}
