package sscs

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

const (
	// Substituted bases below this phred score abstain from voting.
	mismatchQualCutoff = 30

	// maxConsensusQual is the sentinel molecular quality assigned when
	// every cast vote agrees.
	maxConsensusQual = 62
)

// The voting alphabet.  baseN collects clipped positions, reads shorter
// than the family's read length, and any base outside ACGT.
const (
	baseA = iota
	baseC
	baseG
	baseT
	baseN
	nBases
)

var baseToASCII = [nBases]byte{'A', 'C', 'G', 'T', 'N'}

func asciiToBase(c byte) int {
	switch c {
	case 'A':
		return baseA
	case 'C':
		return baseC
	case 'G':
		return baseG
	case 'T':
		return baseT
	}
	return baseN
}

// Consensus is the outcome for one read family: consensus bases and
// parallel molecular phred qualities.  Both have the length of the
// family's read length and the base alphabet is ACGTN.
type Consensus struct {
	Seq  []byte
	Qual []byte
}

// Builder builds majority-vote consensus sequences over read families.
// Not safe for concurrent use when constructed with a random source.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder returns a Builder that breaks ties between equally
// supported bases with rng.  A nil rng selects the deterministic
// tie-break: the first base in A, C, G, T, N order.
func NewBuilder(rng *rand.Rand) *Builder {
	return &Builder{rng: rng}
}

// voter is the precomputed per-read state for one family member.
type voter struct {
	seq        []byte
	qual       []byte
	start, end int // unclipped query bounds against the family read length
	softClip   int // offset from unclipped space to Seq/Qual indices
	mismatches map[int]bool
}

// Build computes the consensus over family at every position in
// [0, readLen).  A read with an unparseable MD string is dropped from
// the family with a diagnostic; other families are unaffected.
//
// cutoff is the per-position base-frequency cutoff accepted for
// compatibility with the upstream pipeline interface; position
// resolution is driven by majority vote and phred abstention only, and
// whole-consensus N-fraction filtering is applied by the aggregator.
func (b *Builder) Build(family []*sam.Record, readLen int, cutoff float64) (Consensus, error) {
	_ = cutoff
	if readLen <= 0 {
		return Consensus{}, fmt.Errorf("sscs: non-positive read length %d", readLen)
	}
	voters := make([]voter, 0, len(family))
	for _, r := range family {
		md, ok := MDString(r)
		if !ok {
			log.Error.Printf("read %s has no MD tag, dropping from family", r.Name)
			continue
		}
		mm, err := MismatchPositions(r.Cigar, md)
		if err != nil {
			log.Error.Printf("read %s: %v, dropping from family", r.Name, err)
			continue
		}
		v := voter{
			seq:        r.Seq.Expand(),
			qual:       r.Qual,
			softClip:   leadingSoftClip(r.Cigar),
			mismatches: make(map[int]bool, len(mm)),
		}
		v.start, v.end = QueryBounds(r.Cigar, readLen)
		for _, p := range mm {
			v.mismatches[p] = true
		}
		voters = append(voters, v)
	}
	if len(voters) == 0 {
		return Consensus{}, fmt.Errorf("sscs: no usable reads in family of %d", len(family))
	}

	cons := Consensus{
		Seq:  make([]byte, 0, readLen),
		Qual: make([]byte, 0, readLen),
	}
	for i := 0; i < readLen; i++ {
		var votes [nBases]int
		for vi := range voters {
			v := &voters[vi]
			if i < v.start || i >= v.end {
				// Clipped or absent at this position: implicit N vote.
				votes[baseN]++
				continue
			}
			j := v.softClip + i - v.start
			if j >= len(v.seq) || j >= len(v.qual) {
				votes[baseN]++
				continue
			}
			if v.mismatches[i] && v.qual[j] < mismatchQualCutoff {
				// Low-quality difference from reference: abstain.
				continue
			}
			votes[asciiToBase(v.seq[j])]++
		}
		base, qual := b.resolve(votes)
		cons.Seq = append(cons.Seq, base)
		cons.Qual = append(cons.Qual, qual)
	}
	return cons, nil
}

// resolve tallies one position's votes into a consensus base and its
// molecular phred quality.  When every read abstained the position is
// N with quality 0.
func (b *Builder) resolve(votes [nBases]int) (byte, byte) {
	total, max := 0, 0
	for _, v := range votes {
		total += v
		if v > max {
			max = v
		}
	}
	if total == 0 {
		return 'N', 0
	}
	var tied []int
	for base, v := range votes {
		if v == max {
			tied = append(tied, base)
		}
	}
	winner := tied[0]
	if len(tied) > 1 && b.rng != nil {
		winner = tied[b.rng.Intn(len(tied))]
	}
	p := float64(total-votes[winner]) / float64(total)
	if p == 0 {
		return baseToASCII[winner], maxConsensusQual
	}
	return baseToASCII[winner], byte(math.Round(-10 * math.Log10(p)))
}
