// Package fastq writes FASTQ records for sequence-only consensus
// output.
package fastq

import (
	"io"

	"github.com/pkg/errors"
)

// qualOffset is the Sanger phred ASCII offset.
const qualOffset = 33

var newline = []byte{'\n'}

// Read is a single FASTQ record.  Qual holds raw phred scores, not
// ASCII-offset characters.
type Read struct {
	ID   string
	Seq  []byte
	Qual []byte
}

// Writer writes FASTQ records to an underlying writer.  The first
// error encountered is sticky and returned by every later call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter constructs a FASTQ writer that writes reads to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes r in four-line FASTQ format, converting qualities to
// Sanger encoding.
func (w *Writer) Write(r *Read) error {
	if len(r.Seq) != len(r.Qual) {
		return errors.Errorf("fastq: read %s: seq length %d != qual length %d",
			r.ID, len(r.Seq), len(r.Qual))
	}
	ascii := make([]byte, len(r.Qual))
	for i, q := range r.Qual {
		ascii[i] = q + qualOffset
	}
	w.writeString("@" + r.ID)
	w.write(r.Seq)
	w.writeString("+")
	w.write(ascii)
	return w.err
}

func (w *Writer) writeString(line string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, line); err != nil {
		w.err = errors.Wrap(err, "fastq: write")
		return
	}
	_, w.err = w.w.Write(newline)
}

func (w *Writer) write(line []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(line); err != nil {
		w.err = errors.Wrap(err, "fastq: write")
		return
	}
	_, w.err = w.w.Write(newline)
}
