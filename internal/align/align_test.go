package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

func repeat(pattern []training.Sample, n int) training.Sequence {
	var out training.Sequence
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func TestAlign_SyntheticPacket(t *testing.T) {
	lts := make(training.Sequence, 64)
	for i := range lts {
		// A pseudo-random-looking but deterministic sequence with good
		// autocorrelation properties is not required for this synthetic
		// test; distinct values are enough to avoid accidental ties.
		lts[i] = complex(float32(i%7)-3, float32((i*3)%5)-2)
	}

	var pkt training.Sequence
	junk := []training.Sample{complex(0.1, 0.1), complex(-0.1, -0.1), 0}
	pkt = append(pkt, repeat(junk, 34)...)[:100]

	realStart := len(pkt)
	pkt = append(pkt, make(training.Sequence, len(lts)/2)...) // guard interval
	pkt = append(pkt, lts...)
	pkt = append(pkt, lts...)

	moreJunk := []training.Sample{complex(-0.1, 0.05), complex(0.11, -0.04), complex(0.1, 0), complex(-0.1, 0)}
	pkt = append(pkt, repeat(moreJunk, 25)...)[:len(pkt)+100]

	got := Align(pkt, lts)
	require.Equal(t, realStart, got)
}

func TestAlign_Scenario3_JunkGuardSingleLTSJunk(t *testing.T) {
	// Concrete scenario from the spec: 100 samples of junk, L/2 zeros
	// (guard interval), one LTS repetition, 100 samples of junk. The
	// aligner must still return the guard-interval start even though only
	// one real correlation peak exists; the junk's correlation with the
	// LTS is negligible enough that the two-peak product is dominated by
	// the single genuine peak.
	lts := make(training.Sequence, 64)
	for i := range lts {
		lts[i] = complex(float32(i%11)-5, float32((i*5)%13)-6)
	}

	var pkt training.Sequence
	junk := []training.Sample{complex(0.1, 0.1), complex(-0.1, -0.1), 0}
	pkt = append(pkt, repeat(junk, 34)[:100]...)

	realStart := len(pkt)
	pkt = append(pkt, make(training.Sequence, len(lts)/2)...)
	pkt = append(pkt, lts...)

	moreJunk := []training.Sample{complex(-0.1, 0.05), complex(0.11, -0.04), complex(0.1, 0), complex(-0.1, 0)}
	pkt = append(pkt, repeat(moreJunk, 25)[:100]...)

	got := Align(pkt, lts)
	require.Equal(t, realStart, got)
}

func TestAlign_TieBreakFavoursEarliestIndex(t *testing.T) {
	// Two LTS copies placed back to back, preceded by padding, should
	// align to the first occurrence even if a later coincidental repeat
	// exists.
	lts := training.Sequence{1, -1, 1, -1}
	var pkt training.Sequence
	pkt = append(pkt, make(training.Sequence, 10)...)
	realStart := len(pkt)
	pkt = append(pkt, lts...)
	pkt = append(pkt, lts...)
	pkt = append(pkt, make(training.Sequence, 20)...)

	got := Align(pkt, lts)
	require.Equal(t, realStart-len(lts)/2, got)
}
