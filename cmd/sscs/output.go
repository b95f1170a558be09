package main

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf"
	"github.com/grailbio/hts/sam"
	"github.com/oicr-gsi/ConsensusCruncher/fastq"
	"github.com/oicr-gsi/ConsensusCruncher/sscs"
)

// outPrefix strips the conventional .sscs.bam suffix from the output
// path so sibling outputs land next to the primary BAM.
func outPrefix(outPath string) string {
	p := strings.TrimSuffix(outPath, ".bam")
	return strings.TrimSuffix(p, ".sscs")
}

type bamOutput struct {
	f file.File
	w *bam.Writer
}

func newBAMOutput(ctx context.Context, path string, header *sam.Header) (*bamOutput, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	w, err := bam.NewWriter(f.Writer(ctx), header, 1)
	if err != nil {
		_ = f.Close(ctx)
		return nil, err
	}
	return &bamOutput{f: f, w: w}, nil
}

func (o *bamOutput) close(ctx context.Context, e *errors.Once) {
	e.Set(o.w.Close())
	e.Set(o.f.Close(ctx))
}

type fastqOutput struct {
	f  file.File
	gz *bgzf.Writer
	w  *fastq.Writer
}

func newFastqOutput(ctx context.Context, path string) (*fastqOutput, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	gz := bgzf.NewWriter(f.Writer(ctx), 1)
	return &fastqOutput{f: f, gz: gz, w: fastq.NewWriter(gz)}, nil
}

func (o *fastqOutput) close(ctx context.Context, e *errors.Once) {
	e.Set(o.gz.Close())
	e.Set(o.f.Close(ctx))
}

// fileSinks routes family output to the BAM and FASTQ files derived
// from the primary output path.
type fileSinks struct {
	ctx                           context.Context
	primary, doubleton, singleton *bamOutput
	r1, r2, dr1, dr2              *fastqOutput
}

func newFileSinks(ctx context.Context, header *sam.Header, outPath string) (*fileSinks, error) {
	prefix := outPrefix(outPath)
	s := &fileSinks{ctx: ctx}
	var err error
	if s.primary, err = newBAMOutput(ctx, outPath, header); err != nil {
		return nil, err
	}
	if s.singleton, err = newBAMOutput(ctx, prefix+".singleton.bam", header); err != nil {
		return nil, err
	}
	if s.doubleton, err = newBAMOutput(ctx, prefix+".doubleton.bam", header); err != nil {
		return nil, err
	}
	if s.r1, err = newFastqOutput(ctx, prefix+".sscs_R1.fastq.gz"); err != nil {
		return nil, err
	}
	if s.r2, err = newFastqOutput(ctx, prefix+".sscs_R2.fastq.gz"); err != nil {
		return nil, err
	}
	if s.dr1, err = newFastqOutput(ctx, prefix+".doubleton.sscs_R1.fastq.gz"); err != nil {
		return nil, err
	}
	if s.dr2, err = newFastqOutput(ctx, prefix+".doubleton.sscs_R2.fastq.gz"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileSinks) Singleton(r *sam.Record) error {
	return s.singleton.w.Write(r)
}

func (s *fileSinks) Doubleton(c *sscs.ConsensusRead) error {
	return s.write(s.doubleton, s.dr1, s.dr2, c)
}

func (s *fileSinks) Primary(c *sscs.ConsensusRead) error {
	return s.write(s.primary, s.r1, s.r2, c)
}

func (s *fileSinks) write(b *bamOutput, r1, r2 *fastqOutput, c *sscs.ConsensusRead) error {
	if err := b.w.Write(c.Record); err != nil {
		return err
	}
	out := r2
	if c.Read1 {
		out = r1
	}
	return out.w.Write(&fastq.Read{ID: c.Record.Name, Seq: c.FastqSeq, Qual: c.FastqQual})
}

func (s *fileSinks) Close() error {
	e := errors.Once{}
	for _, b := range []*bamOutput{s.primary, s.doubleton, s.singleton} {
		b.close(s.ctx, &e)
	}
	for _, q := range []*fastqOutput{s.r1, s.r2, s.dr1, s.dr2} {
		q.close(s.ctx, &e)
	}
	return e.Err()
}

// writeStats writes the summary-statistics block and the family-size
// distribution next to the consensus outputs.
func writeStats(ctx context.Context, prefix string, m *sscs.Metrics) (err error) {
	f, err := file.Create(ctx, prefix+".stats.txt")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, f, &err)
	if _, err = io.WriteString(f.Writer(ctx), m.String()); err != nil {
		return err
	}
	return writeFamilySizes(ctx, prefix, m)
}

func writeFamilySizes(ctx context.Context, prefix string, m *sscs.Metrics) (err error) {
	f, err := file.Create(ctx, prefix+".read_families.txt")
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, f, &err)
	w := tsv.NewWriter(f.Writer(ctx))
	w.WriteString("family_size")
	w.WriteString("families")
	if err = w.EndLine(); err != nil {
		return err
	}
	sizes := make([]int, 0, len(m.FamilySizes))
	for size := range m.FamilySizes {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		w.WriteUint32(uint32(size))
		w.WriteUint32(uint32(m.FamilySizes[size]))
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}
