package sscs

// Reverse complement for the ACGTN consensus alphabet, used when a
// reverse-strand family is rendered for a sequence-only sink.

var complementTable [256]byte

func init() {
	for i := range complementTable {
		complementTable[i] = 'N'
	}
	complementTable['A'] = 'T'
	complementTable['C'] = 'G'
	complementTable['G'] = 'C'
	complementTable['T'] = 'A'
}

// reverseComp returns the reverse complement of seq.  Bases outside
// ACGT complement to N.
func reverseComp(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		out[len(seq)-1-i] = complementTable[c]
	}
	return out
}

// reverseBytes returns a reversed copy of b.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
