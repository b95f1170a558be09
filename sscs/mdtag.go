package sscs

import (
	"fmt"
	"sort"

	"github.com/grailbio/hts/sam"
)

// An MD aux value is a run-length encoding of a read's differences from
// the reference over its aligned (clip-stripped) portion: decimal match
// run lengths interleaved with substituted reference bases and
// ^-prefixed deleted runs, e.g. "19^A8G70".  Two coordinate spaces are
// involved: MD offsets are relative to the start of the aligned
// portion ("aligned space"), while consensus voting happens over the
// full declared read length ("unclipped space").  The conversion
// between the two is a shift by the leading clip length.

var mdTag = sam.NewTag("MD")

// MDString returns the MD aux value of r, if present.
func MDString(r *sam.Record) (string, bool) {
	aux := r.AuxFields.Get(mdTag)
	if aux == nil {
		return "", false
	}
	s, ok := aux.Value().(string)
	return s, ok
}

// QueryBounds returns the half-open interval of non-clipped positions
// for a read of declared length readLen, in unclipped query space.
// Clips can only occur as the first and/or last CIGAR operation.
func QueryBounds(cigar sam.Cigar, readLen int) (start, end int) {
	end = readLen
	if len(cigar) == 0 {
		return
	}
	if t := cigar[0].Type(); t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
		start = cigar[0].Len()
	}
	if t := cigar[len(cigar)-1].Type(); t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
		end = readLen - cigar[len(cigar)-1].Len()
	}
	return
}

// InferredReadLength returns the query length implied by cigar: the sum
// of all query-consuming operation lengths.  Hard-clipped bases are not
// part of the stored sequence and do not count.
func InferredReadLength(cigar sam.Cigar) int {
	n := 0
	for _, op := range cigar {
		if op.Type().Consumes().Query == 1 {
			n += op.Len()
		}
	}
	return n
}

// leadingClip returns the length of a leading soft or hard clip.
func leadingClip(cigar sam.Cigar) int {
	if len(cigar) == 0 {
		return 0
	}
	if t := cigar[0].Type(); t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
		return cigar[0].Len()
	}
	return 0
}

// leadingSoftClip returns the length of a leading soft clip.  Unlike
// hard-clipped bases, soft-clipped bases are present in Seq and Qual,
// so this is the offset between aligned space and sequence indices.
func leadingSoftClip(cigar sam.Cigar) int {
	if len(cigar) != 0 && cigar[0].Type() == sam.CigarSoftClipped {
		return cigar[0].Len()
	}
	return 0
}

// alignedToUnclipped converts a position in aligned space to unclipped
// query space.
func alignedToUnclipped(pos, clip int) int {
	return pos + clip
}

// MismatchPositions returns the sorted, duplicate-free 0-based offsets,
// in unclipped query space, of read bases that differ from the
// reference: the substitutions recorded in md, plus every inserted
// base.  Inserted bases have no reference counterpart and never appear
// in the MD string, so they are unconditionally included.  Deleted
// bases consume no query positions; the match run preceding a deletion
// is folded into the next substitution's offset.
func MismatchPositions(cigar sam.Cigar, md string) ([]int, error) {
	positions, err := decodeMD(md)
	if err != nil {
		return nil, err
	}
	positions = append(positions, insertedPositions(cigar)...)
	if len(positions) == 0 {
		return nil, nil
	}

	clip := leadingClip(cigar)
	seen := make(map[int]bool, len(positions))
	result := make([]int, 0, len(positions))
	for _, p := range positions {
		p = alignedToUnclipped(p, clip)
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}
	sort.Ints(result)
	return result, nil
}

// decodeMD returns the substitution offsets encoded in md, in aligned
// space.  Each match run is the distance from the previous mismatch, so
// absolute offsets accumulate as prev + run + 1; a leading substitution
// letter denotes a mismatch at offset 0.
func decodeMD(md string) ([]int, error) {
	var (
		positions []int
		run       int
		delAccum  int
	)
	i := 0
	for i < len(md) {
		switch c := md[i]; {
		case c >= '0' && c <= '9':
			run = run*10 + int(c-'0')
			i++
		case c == '^':
			// Deletion: the deleted reference bases consume no query
			// positions, but the match run before them shifts the next
			// substitution's offset.
			delAccum += run
			run = 0
			i++
			j := i
			for i < len(md) && isBase(md[i]) {
				i++
			}
			if i == j {
				return nil, fmt.Errorf("sscs: deletion with no bases in MD string %q", md)
			}
		case isBase(c):
			p := run + delAccum
			run, delAccum = 0, 0
			if len(positions) > 0 {
				p += positions[len(positions)-1] + 1
			}
			positions = append(positions, p)
			i++
		default:
			return nil, fmt.Errorf("sscs: invalid character %q in MD string %q", c, md)
		}
	}
	return positions, nil
}

// insertedPositions returns the aligned-space offsets of all inserted
// bases in cigar.
func insertedPositions(cigar sam.Cigar) []int {
	var positions []int
	pos := 0
	for _, op := range cigar {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			pos += op.Len()
		case sam.CigarInsertion:
			for i := 0; i < op.Len(); i++ {
				positions = append(positions, pos)
				pos++
			}
		}
	}
	return positions
}

func isBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		return true
	}
	return false
}
