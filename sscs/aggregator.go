package sscs

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// disallowedFlags are paired-end orientations excluded from family
// construction: one end unmapped, or combinations that cannot form a
// mate pair under the pairing table.
var disallowedFlags = map[int]bool{
	69: true, 73: true, 77: true, 89: true, 101: true, 117: true, 121: true,
	133: true, 137: true, 141: true, 153: true, 165: true, 181: true, 185: true,
}

// ConsensusRead is one finished consensus, tagged with its family
// identifiers and ready for routing.
type ConsensusRead struct {
	// Record is an alignment record carrying the consensus sequence and
	// qualities, templated on the family's first read.  Its query name
	// is <familyKey>:<depth>.
	Record *sam.Record

	// Key and RawTag identify the family; Depth is its read count.
	Key    string
	RawTag string
	Depth  int

	// Read1 reports the family's read slot, for R1/R2 output splitting.
	Read1 bool

	// FastqSeq and FastqQual are the sequence-only rendering of the
	// consensus: reverse-complemented (with reversed qualities) when
	// the family is on the reverse strand.
	FastqSeq  []byte
	FastqQual []byte
}

// Sinks receives per-family output.  Implementations own the record and
// sequence formats.
type Sinks interface {
	// Singleton receives the unmodified single read of a depth-1 family.
	Singleton(r *sam.Record) error

	// Doubleton receives consensi from families of depth exactly 2.
	Doubleton(c *ConsensusRead) error

	// Primary receives consensi from families of depth > 2.
	Primary(c *ConsensusRead) error
}

// Aggregator accumulates the reads of one chunk and builds one
// consensus per read family when the chunk completes.  State never
// carries across chunks: families share an alignment start, and chunk
// boundaries partition by coordinate.
type Aggregator struct {
	builder *Builder
	opts    *Opts
	metrics *Metrics

	// families groups accepted reads by raw tag in insertion order;
	// pairs groups the raw tags of each canonical family key.
	families map[string][]*sam.Record
	pairs    map[string][]string
	keyOrder []string
}

// NewAggregator returns an empty aggregator writing counts to metrics.
func NewAggregator(builder *Builder, opts *Opts, metrics *Metrics) *Aggregator {
	a := &Aggregator{builder: builder, opts: opts, metrics: metrics}
	a.reset()
	return a
}

func (a *Aggregator) reset() {
	a.families = map[string][]*sam.Record{}
	a.pairs = map[string][]string{}
	a.keyOrder = nil
}

// Ingest classifies r and, if accepted, adds it to its read family.
// Rejections are counted, never fatal, and leave no state behind.
func (a *Aggregator) Ingest(r *sam.Record) {
	a.metrics.TotalReads++
	switch {
	case r.Flags&sam.Unmapped != 0:
		a.metrics.UnmappedReads++
		return
	case r.Flags&(sam.Secondary|sam.Supplementary) != 0:
		a.metrics.SecondarySupplementary++
		return
	case disallowedFlags[int(r.Flags)]:
		a.metrics.BadFlagReads++
		return
	}
	if _, ok := MDString(r); !ok {
		a.metrics.MissingMD++
		log.Error.Printf("read %s has no MD tag, dropping", r.Name)
		return
	}
	tag, err := NewRawTag(r)
	if err != nil {
		a.metrics.MalformedReads++
		log.Error.Printf("%v", err)
		return
	}
	key, err := CanonicalKey(tag, int(r.Flags))
	if err != nil {
		a.metrics.MalformedReads++
		log.Error.Printf("%v", err)
		return
	}

	family, seen := a.families[tag]
	if !seen {
		// Register the tag under its family key exactly once.
		if _, ok := a.pairs[key]; !ok {
			a.keyOrder = append(a.keyOrder, key)
		}
		a.pairs[key] = append(a.pairs[key], tag)
	}
	a.families[tag] = append(family, r)
}

// Finalize builds and routes output for every family in the chunk,
// then clears all chunk state.  A family key without exactly two raw
// tags is a data-integrity anomaly: it is reported and skipped without
// failing the run.
func (a *Aggregator) Finalize(sinks Sinks) error {
	defer a.reset()
	// The size distribution covers every family, including those under
	// anomalous keys that produce no output.
	for _, family := range a.families {
		a.metrics.FamilySizes[len(family)]++
	}
	for _, key := range a.keyOrder {
		tags := a.pairs[key]
		if len(tags) != 2 {
			a.metrics.PairAnomalies++
			log.Error.Printf("family key %s resolves to %d raw tags, want 2: %v", key, len(tags), tags)
			continue
		}
		for _, tag := range tags {
			family := a.families[tag]
			if len(family) < 2 {
				a.metrics.Singletons++
				if err := sinks.Singleton(family[0]); err != nil {
					return err
				}
				continue
			}
			c, err := a.buildConsensus(key, tag, family)
			if err != nil {
				a.metrics.DroppedFamilies++
				log.Error.Printf("dropping family %s: %v", tag, err)
				continue
			}
			if c.Depth == 2 {
				a.metrics.Doubletons++
				if err := sinks.Doubleton(c); err != nil {
					return err
				}
			} else {
				a.metrics.SSCSReads++
				if err := sinks.Primary(c); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (a *Aggregator) buildConsensus(key, tag string, family []*sam.Record) (*ConsensusRead, error) {
	template := family[0]
	readLen := InferredReadLength(template.Cigar)
	cons, err := a.builder.Build(family, readLen, a.opts.Cutoff)
	if err != nil {
		return nil, err
	}

	// Whole-consensus acceptance: the N fraction of the non-clipped
	// portion must not exceed NCutoff.  An empty non-clipped interval
	// means every position is clipped away and the consensus is all N.
	start, end := QueryBounds(template.Cigar, readLen)
	if start < 0 {
		start = 0
	}
	if end > len(cons.Seq) {
		end = len(cons.Seq)
	}
	if start >= end {
		return nil, fmt.Errorf("empty non-clipped interval [%d,%d)", start, end)
	}
	if frac := nFraction(cons.Seq[start:end]); frac > a.opts.NCutoff {
		return nil, fmt.Errorf("N fraction %.3f exceeds cutoff %.3f", frac, a.opts.NCutoff)
	}

	c := &ConsensusRead{
		Record:    consensusRecord(template, key, len(family), cons),
		Key:       key,
		RawTag:    tag,
		Depth:     len(family),
		Read1:     rawTagRead1(tag),
		FastqSeq:  cons.Seq,
		FastqQual: cons.Qual,
	}
	if rawTagReverse(tag) {
		c.FastqSeq = reverseComp(cons.Seq)
		c.FastqQual = reverseBytes(cons.Qual)
	}
	return c, nil
}

// consensusRecord returns a new alignment record carrying cons,
// templated on the family's first read.
func consensusRecord(template *sam.Record, key string, depth int, cons Consensus) *sam.Record {
	r := sam.GetFromFreePool()
	r.Name = fmt.Sprintf("%s:%d", key, depth)
	r.Ref = template.Ref
	r.Pos = template.Pos
	r.MapQ = template.MapQ
	r.Cigar = template.Cigar
	r.Flags = template.Flags
	r.MateRef = template.MateRef
	r.MatePos = template.MatePos
	r.TempLen = template.TempLen
	r.Seq = sam.NewSeq(cons.Seq)
	r.Qual = cons.Qual
	return r
}

func nFraction(seq []byte) float64 {
	if len(seq) == 0 {
		return 0
	}
	n := 0
	for _, c := range seq {
		if c == 'N' {
			n++
		}
	}
	return float64(n) / float64(len(seq))
}
