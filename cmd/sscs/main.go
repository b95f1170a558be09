package main

/*
sscs builds single-strand consensus sequences from a position-sorted,
paired-end BAM whose query names carry a molecular barcode after a '|'.
It writes a consensus BAM for families of depth > 2, a doubleton BAM
for families of depth 2, a singleton BAM for unpaired family members,
R1/R2 FASTQ renditions of the consensi, and summary statistics.
*/

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/oicr-gsi/ConsensusCruncher/sscs"
)

var (
	infile    = flag.String("infile", "", "Input position-sorted BAM")
	outfile   = flag.String("outfile", "", "Output SSCS BAM; sibling outputs derive from this path")
	cutoff    = flag.Float64("cutoff", sscs.DefaultOpts.Cutoff, "Base fraction cutoff carried to the consensus builder")
	nCutoff   = flag.Float64("ncutoff", sscs.DefaultOpts.NCutoff, "Maximum fraction of Ns allowed in a consensus sequence")
	chunkSize = flag.Int("chunk-size", sscs.DefaultOpts.ChunkSize, "Genomic span processed per chunk; bounds memory use")
	seed      = flag.Int64("seed", 0, "Seed for consensus tie-breaking; 0 selects the deterministic tie-break")
)

func sscsUsage() {
	fmt.Printf("Usage: %s -infile in.bam -outfile out.sscs.bam [OPTIONS]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

// bamIterator adapts a BAM reader to the runner's record iterator.
type bamIterator struct {
	reader *bam.Reader
	rec    *sam.Record
	err    error
}

func (it *bamIterator) Scan() bool {
	r, err := it.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		it.err = err
		return false
	}
	it.rec = r
	return true
}

func (it *bamIterator) Record() *sam.Record { return it.rec }
func (it *bamIterator) Err() error          { return it.err }

func run(ctx context.Context, inPath, outPath string, opts *sscs.Opts) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	reader, err := bam.NewReader(in, 1)
	if err != nil {
		return err
	}
	defer reader.Close() // nolint: errcheck
	header := reader.Header()

	sinks, err := newFileSinks(ctx, header, outPath)
	if err != nil {
		return err
	}
	runner := &sscs.Runner{Header: header, Opts: opts}
	metrics, runErr := runner.Run(&bamIterator{reader: reader}, sinks)
	if err := sinks.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	log.Printf("run complete:\n%s", metrics.String())
	return writeStats(ctx, outPrefix(outPath), metrics)
}

func main() {
	flag.Usage = sscsUsage
	shutdown := grail.Init()
	defer shutdown()

	if *infile == "" || *outfile == "" {
		flag.Usage()
		log.Fatalf("both -infile and -outfile are required")
	}
	opts := sscs.Opts{
		Cutoff:    *cutoff,
		NCutoff:   *nCutoff,
		ChunkSize: *chunkSize,
		Seed:      *seed,
	}
	ctx := vcontext.Background()
	if err := run(ctx, *infile, *outfile, &opts); err != nil {
		log.Fatalf("%v", err)
	}
}
