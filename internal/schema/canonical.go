package schema

import "encoding/json"

// Canonical returns the deterministic JSON encoding of the field list
// used as the input to the schema checksum. Field order is preserved
// (it is the caller's ordered slice, never re-sorted) because field
// order is semantically meaningful and must not be normalized away.
func (s Schema) Canonical() ([]byte, error) {
	return json.Marshal(s)
}
