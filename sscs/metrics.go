package sscs

import "fmt"

// Metrics counts the disposition of every read and family in a run.
type Metrics struct {
	// TotalReads is the number of records examined.
	TotalReads int

	// UnmappedReads is the number of records dropped for being unmapped.
	UnmappedReads int

	// SecondarySupplementary is the number of records dropped for being
	// secondary or supplementary alignments.
	SecondarySupplementary int

	// BadFlagReads is the number of records dropped because their flag
	// is in the disallowed orientation set.
	BadFlagReads int

	// MissingMD is the number of records dropped for lacking an MD tag.
	MissingMD int

	// MalformedReads is the number of records dropped because their
	// query name or raw tag could not be parsed, or their flag is
	// outside the pairing table.
	MalformedReads int

	// PairAnomalies is the number of family keys that did not resolve
	// to exactly two raw tags, indicating one mate was filtered during
	// ingest while the other was kept.
	PairAnomalies int

	// DroppedFamilies is the number of families whose consensus was
	// rejected by the N-fraction check or could not be built.
	DroppedFamilies int

	// SSCSReads is the number of consensus reads routed to the primary
	// sink (family depth > 2).
	SSCSReads int

	// Doubletons is the number of consensus reads built from families
	// of depth exactly 2.
	Doubletons int

	// Singletons is the number of depth-1 families routed unmodified.
	Singletons int

	// FamilySizes maps family depth to the number of families with
	// that depth.
	FamilySizes map[int]int
}

func newMetrics() *Metrics {
	return &Metrics{FamilySizes: map[int]int{}}
}

// String renders the summary-statistics block written alongside the
// consensus outputs.
func (m *Metrics) String() string {
	return fmt.Sprintf(`Total reads: %d
Unmapped reads: %d
Secondary/supplementary reads: %d
Bad flag reads: %d
Reads missing MD tag: %d
Malformed reads: %d
Pair anomalies: %d
Dropped families: %d
SSCS reads: %d
Doubletons: %d
Singletons: %d
`, m.TotalReads, m.UnmappedReads, m.SecondarySupplementary, m.BadFlagReads,
		m.MissingMD, m.MalformedReads, m.PairAnomalies, m.DroppedFamilies,
		m.SSCSReads, m.Doubletons, m.Singletons)
}
