package dataprocessing

import (
	"strings"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// Deduplication keys per register.
var (
	ClaimsKeyColumns      = []string{domain.ColClaimsPolicy, domain.ColClaimsCertificate, domain.ColClaimsClaim}
	OutstandingKeyColumns = []string{domain.ColOutstandingClaim}
)

// Dedupe keeps the first row for every distinct tuple of values in keys.
// A tuple containing a null equals no other tuple, so such rows are always
// kept.
func Dedupe(t *Table, keys []string) (*Table, error) {
	if err := t.Require("dedupe", keys...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, t.Len())
	return t.selectRows(func(i int) bool {
		key, ok := rowKey(t, i, keys)
		if !ok {
			return true
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	}), nil
}

// rowKey encodes the values of keys at row i. ok is false when any of them
// is null.
func rowKey(t *Table, i int, keys []string) (string, bool) {
	var b strings.Builder
	for _, k := range keys {
		v := t.Get(i, k)
		if v.IsNull() {
			return "", false
		}
		b.WriteString(v.keyPart())
		b.WriteByte('|')
	}
	return b.String(), true
}
