/*Package sscs builds single-strand consensus sequences (SSCS) from
  families of paired-end reads that share a molecular barcode and
  alignment coordinates.

  Family Concepts:

  Every accepted read is assigned a raw tag built from its barcode
  (embedded in the query name after a '|'), its own reference and
  alignment start, its mate's reference and alignment start, its strand,
  and its read slot (R1/R2).  All reads sharing one raw tag form a read
  family; the family's depth is its read count.

  The two raw tags belonging to the two mates of one physical fragment
  are joined under a canonical family key: barcode, endpoints in
  ascending (reference, coordinate) order, a strand marker, and the
  ordered SAM-flag pair of the two mates.  Both mates of a fragment
  canonicalize to the same key regardless of processing order, including
  translocation pairs whose mates map to different references.

  Consensus Construction:

  For each family of depth >= 2, every position of the family's inferred
  read length is resolved by majority vote over the family's reads.  A
  read outside its unclipped query bounds votes N; a read whose base at
  the position is a recorded difference from the reference (decoded from
  the CIGAR and MD tag) and has phred quality below 30 abstains; every
  other read votes its base.  Ties are broken at random (seedable), or
  deterministically by base order when no random source is configured.
  The consensus quality at a position is the molecular phred score
  -10*log10(error votes / total votes), with 62 as the
  maximum-confidence sentinel and N/0 when no votes were cast.

  A finished consensus is rejected when the N fraction of its non-clipped
  bases exceeds the configured cutoff.  Surviving consensi route by
  depth: 2 to the doubleton sink, >2 to the primary sink.  Depth-1
  families route their single read, unmodified, to the singleton sink.

  Chunking:

  Reads are processed in genome-order chunks bounded by an ordered
  region list derived from the header's reference lengths.  Families
  share one alignment start, so no family spans a chunk boundary, and
  all grouping state is cleared between chunks to bound memory.
*/
package sscs
