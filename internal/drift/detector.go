package drift

import (
	"time"

	"github.com/withObsrvr/versionlake/internal/artifact"
	"github.com/withObsrvr/versionlake/internal/catalog"
	"github.com/withObsrvr/versionlake/internal/ledger"
	"github.com/withObsrvr/versionlake/internal/partition"
)

// Drift is one (query, partition) classification.
type Drift struct {
	QueryName      string
	PartitionKey   partition.Key
	State          State
	CurrentSQL     string
	ExecutedSQLB64 string
}

// Detector classifies catalog x range against a set of ledger entries.
type Detector struct {
	Now func() time.Time
}

func NewDetector() *Detector {
	return &Detector{Now: time.Now}
}

// Classify evaluates one (query, partition) pair. declarationText is
// not read: the yaml checksum is not compared, only the schema and sql
// checksums, the version and the upstream states.
func (d *Detector) Classify(q catalog.QueryDef, key partition.Key, entries []ledger.Entry, declarationText string) Drift {
	today := d.Now()
	partitionDate := key.Date()

	latest, hasEntry := latestFor(entries, q.Name, key)

	version, hasVersion := q.VersionFor(partitionDate)
	if !hasVersion || !hasEntry {
		return Drift{QueryName: q.Name, PartitionKey: key, State: StateNeverRun}
	}

	currentSQL := version.SQLFor(today)
	if latest.Status == ledger.StatusFailed {
		return Drift{QueryName: q.Name, PartitionKey: key, State: StateFailed, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
	}

	schemaJSON, err := version.Schema.Canonical()
	if err == nil {
		schemaSum, err := artifact.Checksum(string(schemaJSON))
		if err == nil && schemaSum != latest.Checksums.Schema {
			return Drift{QueryName: q.Name, PartitionKey: key, State: StateSchemaChanged, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
		}
	}

	sqlSum, err := artifact.Checksum(currentSQL)
	if err == nil && sqlSum != latest.Checksums.SQL {
		return Drift{QueryName: q.Name, PartitionKey: key, State: StateSqlChanged, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
	}

	if version.Version != latest.Version {
		return Drift{QueryName: q.Name, PartitionKey: key, State: StateVersionUpgraded, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
	}

	if upstreamChanged(latest, entries) {
		return Drift{QueryName: q.Name, PartitionKey: key, State: StateUpstreamChanged, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
	}

	return Drift{QueryName: q.Name, PartitionKey: key, State: StateCurrent, CurrentSQL: currentSQL, ExecutedSQLB64: latest.CompressedSQL}
}

func latestFor(entries []ledger.Entry, queryName string, key partition.Key) (ledger.Entry, bool) {
	var best ledger.Entry
	found := false
	for _, e := range entries {
		if e.QueryName != queryName || !e.PartitionKey.Equal(key) {
			continue
		}
		if !found || e.ExecutedAt.After(best.ExecutedAt) {
			best = e
			found = true
		}
	}
	return best, found
}

// upstreamChanged reports whether any upstream dependency recorded in
// entry.UpstreamStates now has a later executed-at in entries than was
// recorded at run time. Since no writer in this core populates
// UpstreamStates (a reserved extension
// point), this is always false against entries produced here, but the
// rule is implemented in full so a future writer can wire it through.
func upstreamChanged(entry ledger.Entry, entries []ledger.Entry) bool {
	for upstream, recordedAt := range entry.UpstreamStates {
		for _, e := range entries {
			if e.QueryName != upstream {
				continue
			}
			if e.ExecutedAt.After(recordedAt) {
				return true
			}
		}
	}
	return false
}
