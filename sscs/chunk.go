package sscs

import "github.com/grailbio/hts/sam"

// Region is one chunk boundary: a half-open interval on a reference.
type Region struct {
	RefID int
	Start int
	End   int
}

// Chunks partitions every reference in header into regions of at most
// size bases, in genome order.  Reads are assigned to the region
// containing their alignment start, so a read family, whose members
// share one start, can never span two regions; clearing aggregation
// state at region boundaries therefore bounds memory by one region's
// reads.
func Chunks(header *sam.Header, size int) []Region {
	var regions []Region
	for _, ref := range header.Refs() {
		for start := 0; start < ref.Len(); start += size {
			end := start + size
			if end > ref.Len() {
				end = ref.Len()
			}
			regions = append(regions, Region{RefID: ref.ID(), Start: start, End: end})
		}
	}
	return regions
}

func (g Region) contains(refID, pos int) bool {
	return refID == g.RefID && pos >= g.Start && pos < g.End
}
