// Package align locates the long training sequence within a packet
// candidate buffer, by cross-correlating against the known LTS.
package align

import "github.com/venkat-chanest/ofdm-chanest/internal/training"

// Align returns the offset within pkt at which the long preamble begins
// (the start of its guard interval, i.e. len(lts)/2 samples before the
// first LTS repetition). The caller must pass a small window known to contain the
// LTS — excessive data causes spurious correlation peaks.
//
// Algorithm: for each candidate start i, compute the cross-correlation
// power against lts, then pick argmax_i corr[i]*corr[i+len(lts)] — this
// disambiguates the two back-to-back LTS repeats from a single spurious
// peak by requiring both repeats to correlate strongly.
func Align(pkt training.Sequence, lts training.Sequence) int {
	l := len(lts)
	corr := make([]float32, len(pkt)-l)
	for i := range corr {
		var sum complex64
		for k, lv := range lts {
			sum += conj(lv) * pkt[i+k]
		}
		corr[i] = normSqr(sum)
	}

	var max float32
	maxIdx := 0
	for i := 0; i < len(pkt)-2*l; i++ {
		val := corr[i] * corr[i+l]
		if val > max {
			max = val
			maxIdx = i
		}
	}

	return maxIdx - l/2
}

func conj(s training.Sample) training.Sample {
	return complex(real(s), -imag(s))
}

func normSqr(s training.Sample) float32 {
	r, im := real(s), imag(s)
	return r*r + im*im
}
