package dataprocessing

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

func canonical(t *testing.T, rows ...[]interface{}) *Table {
	return tbl(t, []string{"POLIS", "KLAIM", "ID"}, rows...)
}

func TestReconcile_Categories(t *testing.T) {
	claims := canonical(t,
		[]interface{}{"A1", "K1", "c1"},
		[]interface{}{"A2", "K2", "c2"},
		[]interface{}{12345, "K3", "c3"},
	)
	outstanding := canonical(t,
		[]interface{}{"A1", "K1", "o1"},
		[]interface{}{"B9", "K9", "o2"},
		[]interface{}{"12345", "K3", "o3"},
	)

	a, b, stats, err := Reconcile(claims, outstanding)
	require.NoError(t, err)

	assert.Equal(t, []string{domain.CategoryBoth, domain.CategoryClaims, domain.CategoryBoth}, column(t, a, "Kategori"))
	assert.Equal(t, []string{domain.CategoryBoth, domain.CategoryOutstanding, domain.CategoryBoth}, column(t, b, "Kategori"))
	assert.Equal(t, ReconcileStats{ClaimsOnly: 1, OutstandingOnly: 1, Both: 2}, stats)

	assert.False(t, claims.HasColumn("Kategori"), "inputs are not modified")
}

func TestReconcile_SeparatorDoesNotCollide(t *testing.T) {
	// "A-B" + "C" and "A" + "B-C" both join to "A-B-C" with a dash separator.
	claims := canonical(t, []interface{}{"A-B", "C", "c1"})
	outstanding := canonical(t, []interface{}{"A", "B-C", "o1"})

	a, b, _, err := Reconcile(claims, outstanding)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryClaims, a.Get(0, "Kategori").String())
	assert.Equal(t, domain.CategoryOutstanding, b.Get(0, "Kategori").String())
}

func TestReconcile_MissingIdentifiersNeverMatch(t *testing.T) {
	tests := []struct {
		name   string
		policy interface{}
		claim  interface{}
	}{
		{"null claim", "A1", nil},
		{"null policy", nil, "K1"},
		{"both null", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := canonical(t, []interface{}{tt.policy, tt.claim, "c1"})
			outstanding := canonical(t, []interface{}{tt.policy, tt.claim, "o1"})

			a, b, stats, err := Reconcile(claims, outstanding)
			require.NoError(t, err)
			assert.Equal(t, domain.CategoryClaims, a.Get(0, "Kategori").String())
			assert.Equal(t, domain.CategoryOutstanding, b.Get(0, "Kategori").String())
			assert.Equal(t, 2, stats.MissingKeys)
			assert.Zero(t, stats.Both)
		})
	}
}

func TestReconcile_SchemaError(t *testing.T) {
	claims := canonical(t, []interface{}{"A1", "K1", "c1"})
	outstanding := tbl(t, []string{"POLICY NO", "CLAIM NO"}, []interface{}{"A1", "K1"})

	_, _, _, err := Reconcile(claims, outstanding)
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "reconcile", se.Stage)
	assert.Equal(t, "POLIS", se.Column)
}

// labelled returns the sorted multiset of (ID, Kategori) pairs.
func labelled(t *testing.T, tb *Table) []string {
	out := make([]string, tb.Len())
	for i := range out {
		out[i] = tb.Get(i, "ID").String() + "=" + tb.Get(i, "Kategori").String()
	}
	sort.Strings(out)
	return out
}

func shuffled(t *testing.T, tb *Table, rng *rand.Rand) *Table {
	perm := rng.Perm(tb.Len())
	rows := make([][]Value, len(perm))
	for i, p := range perm {
		rows[i] = tb.Row(p)
	}
	out, err := NewTable(tb.Columns(), rows)
	require.NoError(t, err)
	return out
}

func TestReconcile_OrderIndependent(t *testing.T) {
	claims := canonical(t,
		[]interface{}{"A1", "K1", "c1"},
		[]interface{}{"A2", "K2", "c2"},
		[]interface{}{"A3", "K3", "c3"},
		[]interface{}{"A1", "K1", "c4"},
		[]interface{}{nil, "K5", "c5"},
	)
	outstanding := canonical(t,
		[]interface{}{"A3", "K3", "o1"},
		[]interface{}{"A9", "K9", "o2"},
		[]interface{}{"A1", "K1", "o3"},
	)

	wantA, wantB, wantStats, err := Reconcile(claims, outstanding)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		a, b, stats, err := Reconcile(shuffled(t, claims, rng), shuffled(t, outstanding, rng))
		require.NoError(t, err)
		assert.Equal(t, labelled(t, wantA), labelled(t, a))
		assert.Equal(t, labelled(t, wantB), labelled(t, b))
		assert.Equal(t, wantStats, stats)
	}
}

func TestReconcile_CategoryCompleteness(t *testing.T) {
	claims := canonical(t,
		[]interface{}{"A1", "K1", "c1"},
		[]interface{}{"A2", "K2", "c2"},
	)
	outstanding := canonical(t,
		[]interface{}{"A2", "K2", "o1"},
		[]interface{}{"A3", "K3", "o2"},
	)

	a, b, _, err := Reconcile(claims, outstanding)
	require.NoError(t, err)

	inClaims := map[string]bool{}
	inOS := map[string]bool{}
	for i := 0; i < claims.Len(); i++ {
		k, _ := JoinKey(claims, i)
		inClaims[k] = true
	}
	for i := 0; i < outstanding.Len(); i++ {
		k, _ := JoinKey(outstanding, i)
		inOS[k] = true
	}

	merged := Merge(a, b, nil)
	for i := 0; i < merged.Len(); i++ {
		cat := merged.Get(i, "Kategori").String()
		assert.Contains(t, domain.Categories, cat)
		k, _ := JoinKey(merged, i)
		assert.Equal(t, inClaims[k] && inOS[k], cat == domain.CategoryBoth, "key %q", strings.ReplaceAll(k, JoinKeySeparator, "|"))
	}
}
