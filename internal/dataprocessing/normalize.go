package dataprocessing

import (
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// ColumnDefault is a canonical column synthesized when a source lacks it.
type ColumnDefault struct {
	Name  string
	Value Value
}

// Schema maps one register onto the canonical schema.
type Schema struct {
	Renames  map[string]string
	Defaults []ColumnDefault
}

// ClaimsSchema maps the claims register.
func ClaimsSchema() Schema {
	return Schema{
		Renames: map[string]string{
			domain.ColClaimsPolicy: domain.ColPolicy,
			domain.ColClaimsClaim:  domain.ColClaim,
		},
	}
}

// OutstandingSchema maps the outstanding claims register.
func OutstandingSchema() Schema {
	return Schema{
		Renames: map[string]string{
			domain.ColOutstandingPolicy: domain.ColPolicy,
			domain.ColOutstandingClaim:  domain.ColClaim,
		},
		Defaults: []ColumnDefault{
			{Name: domain.ColCertificate, Value: StringValue("")},
		},
	}
}

// Normalize renames source columns onto canonical names and adds every
// default column that is still missing. Rename sources that are absent are
// ignored. Renaming onto a column that already exists is a SchemaError.
func Normalize(t *Table, s Schema) (*Table, error) {
	applied := make(map[string]string, len(s.Renames))
	for from, to := range s.Renames {
		if !t.HasColumn(from) || from == to {
			continue
		}
		if t.HasColumn(to) {
			return nil, &SchemaError{Stage: "normalize", Column: to, Reason: "already present; cannot rename " + from + " onto it"}
		}
		applied[from] = to
	}

	out, err := t.Rename(applied)
	if err != nil {
		return nil, &SchemaError{Stage: "normalize", Column: "", Reason: err.Error()}
	}
	for _, d := range s.Defaults {
		if !out.HasColumn(d.Name) {
			out = out.WithConstant(d.Name, d.Value)
		}
	}
	return out, nil
}

// Tag adds the provenance column identifying the register a row came from.
func Tag(t *Table, source domain.Source) *Table {
	return t.WithConstant(domain.ColSource, StringValue(source.Label()))
}
