package validate

import (
	"testing"
	"time"

	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/partition"
	"github.com/withObsrvr/versionlake/internal/schema"
)

func baseQuery() catalog.QueryDef {
	return catalog.QueryDef{
		Name:      "q",
		Partition: partition.Config{Field: "dt", Type: partition.TypeDay},
		Versions: []catalog.VersionDef{
			{
				Version:       1,
				EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Schema:        schema.Schema{{Name: "dt", Type: schema.TypeDate}},
				SQLContent:    "SELECT @partition_date AS dt",
			},
		},
	}
}

func TestE001MissingPartitionField(t *testing.T) {
	q := baseQuery()
	q.Versions[0].Schema = schema.Schema{{Name: "other", Type: schema.TypeString}}
	r := Validate(q)
	if !hasCode(r.Errors, E001) {
		t.Errorf("expected E001, got %+v", r.Errors)
	}
}

func TestE002MissingClusterField(t *testing.T) {
	q := baseQuery()
	q.Cluster = partition.Cluster{"missing"}
	r := Validate(q)
	if !hasCode(r.Errors, E002) {
		t.Errorf("expected E002, got %+v", r.Errors)
	}
}

func TestE003DuplicateVersion(t *testing.T) {
	q := baseQuery()
	q.Versions = append(q.Versions, q.Versions[0])
	r := Validate(q)
	if !hasCode(r.Errors, E003) {
		t.Errorf("expected E003, got %+v", r.Errors)
	}
}

func TestE004RecordWithNoNestedFields(t *testing.T) {
	q := baseQuery()
	q.Versions[0].Schema = append(q.Versions[0].Schema, schema.Field{Name: "payload", Type: schema.TypeRecord})
	r := Validate(q)
	if !hasCode(r.Errors, E004) {
		t.Errorf("expected E004, got %+v", r.Errors)
	}
}

func TestW001EffectiveFromRegression(t *testing.T) {
	q := baseQuery()
	q.Versions = append(q.Versions, catalog.VersionDef{
		Version:       2,
		EffectiveFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Schema:        q.Versions[0].Schema,
		SQLContent:    "SELECT @partition_date AS dt",
	})
	r := Validate(q)
	if !hasCode(r.Warnings, W001) {
		t.Errorf("expected W001, got %+v", r.Warnings)
	}
}

func TestW005MissingPlaceholder(t *testing.T) {
	q := baseQuery()
	q.Versions[0].SQLContent = "SELECT 1"
	r := Validate(q)
	if !hasCode(r.Warnings, W005) {
		t.Errorf("expected W005, got %+v", r.Warnings)
	}
}

func TestW006EmptySchema(t *testing.T) {
	q := baseQuery()
	q.Versions[0].Schema = nil
	q.Partition = partition.Config{} // no partition field to avoid E001 noise
	r := Validate(q)
	if !hasCode(r.Warnings, W006) {
		t.Errorf("expected W006, got %+v", r.Warnings)
	}
}

func TestW003AndW004FieldDrift(t *testing.T) {
	q := baseQuery()
	q.Versions[0].Schema = schema.Schema{
		{Name: "dt", Type: schema.TypeDate},
		{Name: "removed", Type: schema.TypeString},
		{Name: "retyped", Type: schema.TypeInt64},
	}
	q.Versions = append(q.Versions, catalog.VersionDef{
		Version:       2,
		EffectiveFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Schema: schema.Schema{
			{Name: "dt", Type: schema.TypeDate},
			{Name: "retyped", Type: schema.TypeString},
		},
		SQLContent: "SELECT @partition_date AS dt",
	})
	r := Validate(q)
	if !hasCode(r.Warnings, W003) {
		t.Errorf("expected W003, got %+v", r.Warnings)
	}
	if !hasCode(r.Warnings, W004) {
		t.Errorf("expected W004, got %+v", r.Warnings)
	}
}

func TestValidQueryProducesNoErrors(t *testing.T) {
	r := Validate(baseQuery())
	if !r.OK() {
		t.Errorf("expected no errors, got %+v", r.Errors)
	}
}

func hasCode(diags []Diagnostic, code Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
