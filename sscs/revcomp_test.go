package sscs

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestReverseComp(t *testing.T) {
	expect.EQ(t, string(reverseComp([]byte("TCAGCATAATT"))), "AATTATGCTGA")
	expect.EQ(t, string(reverseComp([]byte("ACTGNN"))), "NNCAGT")
	expect.EQ(t, string(reverseComp(nil)), "")
}

func TestReverseBytes(t *testing.T) {
	expect.EQ(t, reverseBytes([]byte{1, 2, 3, 4}), []byte{4, 3, 2, 1})
	expect.EQ(t, reverseBytes([]byte{7}), []byte{7})
}
