// Package availability derives a record's overall availability from the
// availabilities of its files and file-indices, plus any outstanding
// stage activity.
package availability

import "github.com/cernopendata/coldstorage/internal/catalog"

// Status values a record's derived availability can take.
const (
	Online    = "online"
	OnDemand  = "on demand"
	Partial   = "partial"
	Requested = "requested"
)

// Result is a derived availability plus the histogram it was computed
// from, stored back onto the record as availability/_availability_details.
type Result struct {
	Availability string
	Details      map[string]int
}

// Derive computes a record's availability from its direct files and
// file-indices. An empty record (no files at all) is "online".
func Derive(record *catalog.Record) Result {
	histogram := map[string]int{}

	for _, f := range record.Files {
		histogram[f.Availability()]++
	}
	for _, idx := range record.FileIndices {
		for _, f := range idx.Files {
			histogram[f.Availability()]++
		}
	}

	var status string
	switch len(histogram) {
	case 0:
		status = Online
	case 1:
		for k := range histogram {
			status = k
		}
	default:
		status = Partial
	}

	return Result{Availability: status, Details: histogram}
}

// ActivityChecker reports whether a record has outstanding stage
// activity: a submitted stage Request or an unfinished stage Transfer.
// Implemented by the manager package, which has access to both
// repositories; kept as a narrow interface here to avoid an import
// cycle.
type ActivityChecker interface {
	HasPendingStageActivity(recordUUID string) (bool, error)
}

// DeriveWithOverride computes Derive, then overrides to "requested" if
// the record has pending stage activity — archive activity never
// projects into availability.
func DeriveWithOverride(record *catalog.Record, checker ActivityChecker) (Result, error) {
	result := Derive(record)

	pending, err := checker.HasPendingStageActivity(record.UUID)
	if err != nil {
		return result, err
	}
	if pending {
		result.Availability = Requested
	}
	return result, nil
}
