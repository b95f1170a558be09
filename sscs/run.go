package sscs

import (
	"fmt"
	"math/rand"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// Opts configures a consensus run.
type Opts struct {
	// Cutoff is the per-position base-frequency cutoff carried through
	// to the consensus builder (see Builder.Build).
	Cutoff float64

	// NCutoff is the maximum tolerated N fraction among the non-clipped
	// bases of a consensus.
	NCutoff float64

	// ChunkSize bounds the genomic span covered by one chunk, and with
	// it the size of the per-chunk grouping state.
	ChunkSize int

	// Seed seeds the tie-break random source.  Zero selects the
	// deterministic tie-break by base order.
	Seed int64
}

// DefaultOpts are the cutoffs of the upstream pipeline.
var DefaultOpts = Opts{
	Cutoff:    0.7,
	NCutoff:   0.3,
	ChunkSize: 50000000,
}

// RecordIterator yields alignment records in ascending coordinate
// order.  It is the subset of a BAM iterator the runner needs, so tests
// can substitute a slice-backed implementation.
type RecordIterator interface {
	// Scan advances to the next record, returning false at end of
	// input or on error.
	Scan() bool

	// Record returns the current record.  Valid only after a Scan that
	// returned true.
	Record() *sam.Record

	// Err returns the error that stopped iteration, if any.
	Err() error
}

// Runner drives one pass over a coordinate-sorted record stream:
// chunk assignment, ingest, and per-chunk finalize.
type Runner struct {
	Header *sam.Header
	Opts   *Opts
}

// Run consumes iter to completion, routing all family output to sinks,
// and returns the run metrics.  Processing is strictly sequential; a
// chunk is finalized as soon as the stream moves past its boundary.
func (ru *Runner) Run(iter RecordIterator, sinks Sinks) (*Metrics, error) {
	opts := ru.Opts
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	metrics := newMetrics()
	agg := NewAggregator(NewBuilder(rng), opts, metrics)

	regions := Chunks(ru.Header, opts.ChunkSize)
	cur := 0
	for iter.Scan() {
		r := iter.Record()
		if r.Flags&sam.Unmapped != 0 || r.Ref == nil {
			// Unmapped reads belong to no chunk; the aggregator counts
			// and drops them.
			agg.Ingest(r)
			continue
		}
		for cur < len(regions) && !regions[cur].contains(r.Ref.ID(), r.Pos) {
			// The stream has moved past the current region; its
			// families are complete.
			if err := agg.Finalize(sinks); err != nil {
				return metrics, err
			}
			log.Debug.Printf("finished chunk %d/%d (ref %d: %d-%d)",
				cur+1, len(regions), regions[cur].RefID, regions[cur].Start, regions[cur].End)
			cur++
		}
		if cur == len(regions) {
			return metrics, fmt.Errorf("sscs: read %s at (%d,%d) outside all chunk boundaries; is the input coordinate sorted?",
				r.Name, r.Ref.ID(), r.Pos)
		}
		agg.Ingest(r)
	}
	if err := iter.Err(); err != nil {
		return metrics, err
	}
	if err := agg.Finalize(sinks); err != nil {
		return metrics, err
	}
	return metrics, nil
}
