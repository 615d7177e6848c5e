package dataprocessing

// DefaultDropColumns are removed after merging; none of them is used by
// the derived features or the summaries.
var DefaultDropColumns = []string{
	"SISTEM", "NAMA FILE", "AY", "COB", "TOC", "UY", "VALUE AT RISK",
	"TUNTUTAN_KLAIM", "ANR", "KLAIM REAS", "TOTAL_LOSS", "key", "Sumber Data",
	"BISNIS", "POLICY_BRANCH", "LOB", "UW_YEAR", "uw", "UW_YEAR.1", "REGDATE",
	"CURRENCY", "Net OS Klaim", "Reas", "DY", "JKW", "LT/ST", "SERTIFIKAT",
	"COB Eng",
}

// Merge stacks a's rows above b's rows over the union of their columns
// (a's columns first, then b's new ones). Cells a table has no column for
// are null. Columns listed in drop are removed when present.
func Merge(a, b *Table, drop []string) *Table {
	columns := a.Columns()
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, c := range b.columns {
		if !seen[c] {
			columns = append(columns, c)
			seen[c] = true
		}
	}

	rows := make([][]Value, 0, a.Len()+b.Len())
	for _, src := range []*Table{a, b} {
		for i := range src.rows {
			row := make([]Value, len(columns))
			for j, c := range columns {
				row[j] = src.Get(i, c)
			}
			rows = append(rows, row)
		}
	}

	return MustTable(columns, rows).Drop(drop...)
}
