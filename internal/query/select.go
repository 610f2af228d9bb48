package query

// ApplyFields projects each record down to the requested top-level
// field names, plus the primary key so the caller can still address the
// record. Nested expanded objects are left untouched: spec.md §9 Open
// Questions leaves "should fields strip nested expanded objects" to the
// implementation; this port chooses top-level only, and documents it
// here and in DESIGN.md.
func ApplyFields(records []Record, fields []string, primaryKey string) []Record {
	if len(fields) == 0 {
		return records
	}
	wanted := make(map[string]bool, len(fields)+1)
	for _, f := range fields {
		wanted[f] = true
	}
	wanted[primaryKey] = true

	out := make([]Record, len(records))
	for i, rec := range records {
		projected := make(Record, len(wanted))
		for k, v := range rec {
			if wanted[k] {
				projected[k] = v
			}
		}
		out[i] = projected
	}
	return out
}
