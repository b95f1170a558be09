package sscs

import (
	"github.com/grailbio/hts/sam"
)

// Shared alignment fixtures.  chr1 gets ID 0 and chr2 ID 1.
var (
	testChr1   *sam.Reference
	testChr2   *sam.Reference
	testHeader *sam.Header
)

func init() {
	var err error
	if testChr1, err = sam.NewReference("chr1", "", "", 1000, nil, nil); err != nil {
		panic(err)
	}
	if testChr2, err = sam.NewReference("chr2", "", "", 500, nil, nil); err != nil {
		panic(err)
	}
	if testHeader, err = sam.NewHeader(nil, []*sam.Reference{testChr1, testChr2}); err != nil {
		panic(err)
	}
}

// mkRecord builds an alignment record with a uniform base quality and,
// when md is nonempty, an MD aux field.
func mkRecord(name string, flags sam.Flags, ref *sam.Reference, pos int,
	mateRef *sam.Reference, matePos int, cigar sam.Cigar, seq string, qual byte, md string) *sam.Record {
	quals := make([]byte, len(seq))
	for i := range quals {
		quals[i] = qual
	}
	r := sam.GetFromFreePool()
	r.Name = name
	r.Flags = flags
	r.Ref = ref
	r.Pos = pos
	r.MapQ = 60
	r.Cigar = cigar
	r.MateRef = mateRef
	r.MatePos = matePos
	r.Seq = sam.NewSeq([]byte(seq))
	r.Qual = quals
	if md != "" {
		aux, err := sam.NewAux(mdTag, md)
		if err != nil {
			panic(err)
		}
		r.AuxFields = append(r.AuxFields, aux)
	}
	return r
}

func match(n int) sam.Cigar {
	return sam.Cigar{sam.NewCigarOp(sam.CigarMatch, n)}
}
