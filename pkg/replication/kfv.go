package replication

// Op is the APPL_DB operation carried by a KeyOpFieldsValues record.
type Op string

const (
	OpSet Op = "SET"
	OpDel Op = "DEL"
)

// FieldValue is one field/value pair of an APPL_DB hash.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// KeyOpFieldsValues is a single APPL_DB mutation. SET always carries the full
// field set for the key; DEL carries none.
type KeyOpFieldsValues struct {
	Key    string       `json:"key"`
	Op     Op           `json:"op"`
	Fields []FieldValue `json:"fields,omitempty"`
}

// FieldMap returns the fields as a map, for callers that write Redis hashes.
func (k KeyOpFieldsValues) FieldMap() map[string]string {
	m := make(map[string]string, len(k.Fields))
	for _, fv := range k.Fields {
		m[fv.Field] = fv.Value
	}
	return m
}
