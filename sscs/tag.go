package sscs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/hts/sam"
)

// Raw tags identify one mate's alignment coordinates:
//
//	<barcode>_<refID>_<pos>_<mateRefID>_<matePos>_<fwd|rev>_<R1|R2>
//
// Canonical family keys identify the fragment both mates belong to:
//
//	<barcode>_<loRef>_<loPos>_<hiRef>_<hiPos>_<pos|neg>_<loFlag>_<hiFlag>
//
// Both mates of one fragment produce the same key regardless of which
// is processed first, including translocation pairs whose mates map to
// different references.

const (
	strandPos = "pos"
	strandNeg = "neg"
)

// matePairings maps each accepted SAM flag to its mate's flag.  The
// table is a closed enumeration; a flag outside it is a hard error for
// the read pair.
var matePairings = map[int]int{
	// Proper pairs.
	99: 147, 147: 99, 83: 163, 163: 83,
	// Mapped within insert size, same orientation (++ / --).
	67: 131, 131: 67, 115: 179, 179: 115,
	// Mapped uniquely, unexpected insert size.
	81: 161, 161: 81, 97: 145, 145: 97,
	// Unexpected insert size and orientation.
	65: 129, 129: 65, 113: 177, 177: 113,
}

// properPairStrand resolves the strand marker when a read and its mate
// share one alignment coordinate and endpoint ordering carries no
// strand information.
var properPairStrand = map[int]string{
	99: strandPos, 147: strandPos,
	83: strandNeg, 163: strandNeg,
}

// NewRawTag builds the per-read grouping tag for r.  The molecular
// barcode is embedded in the query name after a '|'.
func NewRawTag(r *sam.Record) (string, error) {
	sep := strings.IndexByte(r.Name, '|')
	if sep < 0 || sep == len(r.Name)-1 {
		return "", fmt.Errorf("sscs: no barcode in query name %q", r.Name)
	}
	// The barcode is the field between the first and second separator.
	barcode := r.Name[sep+1:]
	if next := strings.IndexByte(barcode, '|'); next >= 0 {
		barcode = barcode[:next]
	}
	strand := "fwd"
	if r.Flags&sam.Reverse != 0 {
		strand = "rev"
	}
	slot := "R1"
	if r.Flags&sam.Read2 != 0 {
		slot = "R2"
	}
	return fmt.Sprintf("%s_%d_%d_%d_%d_%s_%s",
		barcode, r.Ref.ID(), r.Pos, r.MateRef.ID(), r.MatePos, strand, slot), nil
}

// CanonicalKey canonicalizes rawTag into the family key shared by both
// mates of one fragment: endpoints are emitted in ascending (reference,
// coordinate) order, the strand marker records which strand of the
// source fragment the family represents, and the ordered flag pair
// makes the suffix identical for both mates.
func CanonicalKey(rawTag string, flag int) (string, error) {
	mateFlag, ok := matePairings[flag]
	if !ok {
		return "", fmt.Errorf("sscs: flag %d outside pairing table (tag %s)", flag, rawTag)
	}
	f := strings.Split(rawTag, "_")
	if len(f) != 7 {
		return "", fmt.Errorf("sscs: malformed raw tag %q", rawTag)
	}
	refA, errA := strconv.Atoi(f[1])
	posA, errB := strconv.Atoi(f[2])
	refB, errC := strconv.Atoi(f[3])
	posB, errD := strconv.Atoi(f[4])
	if errA != nil || errB != nil || errC != nil || errD != nil {
		return "", fmt.Errorf("sscs: malformed raw tag %q", rawTag)
	}
	read1 := f[6] == "R1"

	var strand string
	switch {
	case refA > refB || (refA == refB && posA > posB):
		// Swap the endpoints into ascending order.  A swap implies the
		// opposite strand relative to the canonical ordering.
		f[1], f[2], f[3], f[4] = f[3], f[4], f[1], f[2]
		strand = strandPos
		if read1 {
			strand = strandNeg
		}
	case refA == refB && posA == posB:
		if strand, ok = properPairStrand[flag]; !ok {
			return "", fmt.Errorf("sscs: cannot resolve strand for flag %d with identical endpoints (tag %s)", flag, rawTag)
		}
	default:
		strand = strandNeg
		if read1 {
			strand = strandPos
		}
	}

	lo, hi := flag, mateFlag
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s_%s_%d_%d", f[0], f[1], f[2], f[3], f[4], strand, lo, hi), nil
}

// rawTagReverse reports whether the tag was built from a reverse-strand
// alignment.
func rawTagReverse(tag string) bool {
	return strings.Contains(tag, "_rev_")
}

// rawTagRead1 reports whether the tag was built from an R1 read.
func rawTagRead1(tag string) bool {
	return strings.HasSuffix(tag, "_R1")
}
