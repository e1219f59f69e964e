package dsl

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML distinguishes the three schema forms: a plain string
// (a "${{ versions.N.schema }}" reference), a sequence (inline fields),
// or a mapping (base/add/modify/remove extension).
func (r *RawSchemaRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&r.Ref)
	case yaml.SequenceNode:
		return value.Decode(&r.Inline)
	case yaml.MappingNode:
		type alias RawSchemaRef
		return value.Decode((*alias)(r))
	default:
		return fmt.Errorf("dsl: schema node has unsupported kind %v", value.Kind)
	}
}

// UnmarshalYAML distinguishes the three invariants forms. Inline form
// is a mapping with "before"/"after" sequences; reference form is a
// plain string; extension form is a mapping with "base" plus the
// add/modify/remove sub-lists.
func (r *RawInvariantsRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&r.Ref)
	case yaml.MappingNode:
		var inline struct {
			Before []RawInvariant `yaml:"before"`
			After  []RawInvariant `yaml:"after"`
		}
		if err := value.Decode(&inline); err == nil && (len(inline.Before) > 0 || len(inline.After) > 0) {
			r.InlineBefore = inline.Before
			r.InlineAfter = inline.After
			return nil
		}
		type alias RawInvariantsRef
		return value.Decode((*alias)(r))
	default:
		return fmt.Errorf("dsl: invariants node has unsupported kind %v", value.Kind)
	}
}
