package sscs

import (
	"math/rand"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consRead(seq string, qual byte, cigar sam.Cigar, md string) *sam.Record {
	return mkRecord("r|CCCC", sam.Paired|sam.Read1, testChr1, 100, testChr1, 200, cigar, seq, qual, md)
}

func TestBuildAllAgree(t *testing.T) {
	family := []*sam.Record{
		consRead("ACGT", 40, match(4), "4"),
		consRead("ACGT", 40, match(4), "4"),
		consRead("ACGT", 40, match(4), "4"),
		consRead("ACGT", 40, match(4), "4"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(cons.Seq))
	assert.Equal(t, []byte{62, 62, 62, 62}, cons.Qual)
}

func TestBuildTieDeterministic(t *testing.T) {
	// 2-2 split at the last position.  Without a random source the tie
	// goes to the first base in alphabet order, with the split quality
	// round(-10*log10(0.5)) = 3.
	family := []*sam.Record{
		consRead("ACGA", 40, match(4), "4"),
		consRead("ACGA", 40, match(4), "4"),
		consRead("ACGC", 40, match(4), "4"),
		consRead("ACGC", 40, match(4), "4"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGA", string(cons.Seq))
	assert.Equal(t, []byte{62, 62, 62, 3}, cons.Qual)
}

func TestBuildTieSeeded(t *testing.T) {
	family := []*sam.Record{
		consRead("ACGA", 40, match(4), "4"),
		consRead("ACGA", 40, match(4), "4"),
		consRead("ACGC", 40, match(4), "4"),
		consRead("ACGC", 40, match(4), "4"),
	}
	cons1, err := NewBuilder(rand.New(rand.NewSource(1))).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Contains(t, []byte{'A', 'C'}, cons1.Seq[3])
	assert.Equal(t, byte(3), cons1.Qual[3])

	// Same seed, same pick.
	cons2, err := NewBuilder(rand.New(rand.NewSource(1))).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, cons1.Seq, cons2.Seq)
	assert.Equal(t, cons1.Qual, cons2.Qual)
}

func TestBuildPhredAbstention(t *testing.T) {
	// The middle read differs from the reference at position 1.  Below
	// the phred cutoff it abstains and the position is unanimous; at or
	// above the cutoff its vote counts against the majority.
	family := []*sam.Record{
		consRead("ACGT", 40, match(4), "4"),
		consRead("AAGT", 20, match(4), "1C2"),
		consRead("ACGT", 40, match(4), "4"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(cons.Seq))
	assert.Equal(t, []byte{62, 62, 62, 62}, cons.Qual)

	family[1] = consRead("AAGT", 40, match(4), "1C2")
	cons, err = NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(cons.Seq))
	// One dissenting vote out of three: round(-10*log10(1/3)) = 5.
	assert.Equal(t, []byte{62, 5, 62, 62}, cons.Qual)
}

func TestBuildClippedPositionsVoteN(t *testing.T) {
	// The second read is soft-clipped over the first two positions, so
	// it votes N there and its stored sequence is consumed from index 2.
	clipped := sam.Cigar{sam.NewCigarOp(sam.CigarSoftClipped, 2), sam.NewCigarOp(sam.CigarMatch, 2)}
	family := []*sam.Record{
		consRead("ACGT", 40, match(4), "4"),
		consRead("TTGT", 40, clipped, "2"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(cons.Seq))
	assert.Equal(t, []byte{3, 3, 62, 62}, cons.Qual)
}

func TestBuildAllAbstain(t *testing.T) {
	// Both reads carry a low-quality mismatch at position 0: no votes
	// are cast there and the position is N with quality 0.
	family := []*sam.Record{
		consRead("TACG", 20, match(4), "A3"),
		consRead("TACG", 20, match(4), "A3"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "NACG", string(cons.Seq))
	assert.Equal(t, []byte{0, 62, 62, 62}, cons.Qual)
}

func TestBuildDropsUnusableReads(t *testing.T) {
	// An unparseable MD string drops the read, not the family.
	family := []*sam.Record{
		consRead("ACGT", 40, match(4), "4"),
		consRead("GGGG", 40, match(4), "5%3"),
	}
	cons, err := NewBuilder(nil).Build(family, 4, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(cons.Seq))

	// A family with no usable reads is an error.
	_, err = NewBuilder(nil).Build([]*sam.Record{consRead("GGGG", 40, match(4), "5%3")}, 4, 0.7)
	assert.Error(t, err)
	_, err = NewBuilder(nil).Build([]*sam.Record{consRead("ACGT", 40, match(4), "")}, 4, 0.7)
	assert.Error(t, err)
}

func TestBuildBadReadLength(t *testing.T) {
	_, err := NewBuilder(nil).Build([]*sam.Record{consRead("ACGT", 40, match(4), "4")}, 0, 0.7)
	assert.Error(t, err)
}
