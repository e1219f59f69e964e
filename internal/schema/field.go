// Package schema models the destination table schema: a fixed closed
// set of field types and modes, with nested RECORD support, and the
// canonical JSON form used by internal/artifact for the schema
// checksum.
package schema

import "fmt"

// FieldType is the closed set of primitive (and RECORD) column types.
type FieldType string

const (
	TypeString     FieldType = "STRING"
	TypeBytes      FieldType = "BYTES"
	TypeInt64      FieldType = "INT64"
	TypeFloat64    FieldType = "FLOAT64"
	TypeNumeric    FieldType = "NUMERIC"
	TypeBigNumeric FieldType = "BIGNUMERIC"
	TypeBool       FieldType = "BOOL"
	TypeDate       FieldType = "DATE"
	TypeDatetime   FieldType = "DATETIME"
	TypeTime       FieldType = "TIME"
	TypeTimestamp  FieldType = "TIMESTAMP"
	TypeGeography  FieldType = "GEOGRAPHY"
	TypeJSON       FieldType = "JSON"
	TypeRecord     FieldType = "RECORD"
)

var validTypes = map[FieldType]bool{
	TypeString: true, TypeBytes: true, TypeInt64: true, TypeFloat64: true,
	TypeNumeric: true, TypeBigNumeric: true, TypeBool: true, TypeDate: true,
	TypeDatetime: true, TypeTime: true, TypeTimestamp: true, TypeGeography: true,
	TypeJSON: true, TypeRecord: true,
}

// Mode is the closed set of field cardinalities.
type Mode string

const (
	ModeNullable Mode = "NULLABLE"
	ModeRequired Mode = "REQUIRED"
	ModeRepeated Mode = "REPEATED"
)

// Field is one column of a schema.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Mode        Mode      `json:"mode,omitempty" yaml:"mode,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field   `json:"fields,omitempty" yaml:"fields,omitempty"` // RECORD only
}

// Validate enforces the RECORD invariant recursively: a RECORD field
// must carry a non-empty nested field list.
func (f Field) Validate() error {
	if !validTypes[f.Type] {
		return fmt.Errorf("schema: field %q has unknown type %q", f.Name, f.Type)
	}
	if f.Type == TypeRecord {
		if len(f.Fields) == 0 {
			return fmt.Errorf("schema: RECORD field %q must declare at least one nested field", f.Name)
		}
		for _, nested := range f.Fields {
			if err := nested.Validate(); err != nil {
				return fmt.Errorf("schema: field %q: %w", f.Name, err)
			}
		}
	}
	return nil
}

// Schema is an ordered sequence of fields.
type Schema []Field

// Validate validates every field recursively.
func (s Schema) Validate() error {
	for _, f := range s {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FieldByName returns the field with the given name, if present.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Clone returns a deep copy, used when the resolver inherits a schema
// via extends/base so mutations to the copy never alias the original.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for i, f := range s {
		out[i] = f.clone()
	}
	return out
}

func (f Field) clone() Field {
	cp := f
	if f.Fields != nil {
		cp.Fields = make([]Field, len(f.Fields))
		for i, nested := range f.Fields {
			cp.Fields[i] = nested.clone()
		}
	}
	return cp
}
