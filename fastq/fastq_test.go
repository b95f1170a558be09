package fastq

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(&Read{
		ID:   "CCCC_0_100_0_200_pos_99_147:3",
		Seq:  []byte("ACGT"),
		Qual: []byte{0, 10, 20, 30},
	}))
	require.NoError(t, w.Write(&Read{
		ID:   "second",
		Seq:  []byte("NA"),
		Qual: []byte{0, 62},
	}))
	assert.Equal(t,
		"@CCCC_0_100_0_200_pos_99_147:3\nACGT\n+\n!+5?\n@second\nNA\n+\n!_\n",
		buf.String())
}

func TestWriteLengthMismatch(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	err := w.Write(&Read{ID: "x", Seq: []byte("ACGT"), Qual: []byte{40}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seq length")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteStickyError(t *testing.T) {
	w := NewWriter(failWriter{})
	r := &Read{ID: "x", Seq: []byte("A"), Qual: []byte{1}}
	require.Error(t, w.Write(r))
	assert.Contains(t, w.Write(r).Error(), "disk full")
}
