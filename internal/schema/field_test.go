package schema

import "testing"

func TestRecordRequiresNestedFields(t *testing.T) {
	f := Field{Name: "payload", Type: TypeRecord}
	if err := f.Validate(); err == nil {
		t.Errorf("expected error for RECORD field with no nested fields")
	}

	f.Fields = []Field{{Name: "inner", Type: TypeString}}
	if err := f.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNestedRecordValidatesRecursively(t *testing.T) {
	f := Field{
		Name: "outer",
		Type: TypeRecord,
		Fields: []Field{
			{Name: "inner", Type: TypeRecord}, // missing nested fields
		},
	}
	if err := f.Validate(); err == nil {
		t.Errorf("expected recursive validation to catch empty nested RECORD")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := Schema{
		{Name: "a", Type: TypeRecord, Fields: []Field{{Name: "b", Type: TypeString}}},
	}
	clone := s.Clone()
	clone[0].Fields[0].Name = "mutated"

	if s[0].Fields[0].Name != "b" {
		t.Errorf("clone mutation leaked into original: %+v", s[0].Fields[0])
	}
}

func TestCanonicalDeterministic(t *testing.T) {
	s := Schema{
		{Name: "b", Type: TypeInt64},
		{Name: "a", Type: TypeString},
	}
	c1, err := s.Canonical()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := s.Clone().Canonical()
	if err != nil {
		t.Fatal(err)
	}
	if string(c1) != string(c2) {
		t.Errorf("canonical form not deterministic: %s != %s", c1, c2)
	}
}
