// Package cfo estimates and corrects carrier frequency offset: the residual
// per-sample phase rotation from transmitter/receiver local-oscillator
// mismatch.
package cfo

import (
	"math/cmplx"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// Estimate returns the per-sample CFO phase (radians/sample) from a short
// preamble slice (10 STS repeats, length 10*S) and a long preamble slice
// (guard + two LTS repeats, length 5*L/2, starting at the long-preamble
// guard). Correction should rotate by the negative of this value.
//
// The coarse stage uses the short preamble's delay-and-correlate estimator
// (period S); the fine stage uses the long preamble's much longer period
// (L) for precision, after the coarse estimate resolves the ambiguity
// inherent in a correlation over that longer window.
//
// Preconditions (contract-level, not runtime-checked): len(short) == 10*S,
// len(long) == 5*L/2, L even.
func Estimate(short, long training.Sequence) float32 {
	s := len(short) / 10
	l := 2 * len(long) / 5

	var coarseSum complex128
	for i := 0; i < 9*s; i++ {
		coarseSum += complex128(conj(short[i])) * complex128(short[i+s])
	}
	coarse := float32(cmplx.Phase(coarseSum)) / float32(s)

	coarseLTSCorr := cmplx.Exp(complex(0, float64(-coarse*float32(l))))
	var fineSum complex128
	for i := l / 2; i < 3*l/2; i++ {
		fineSum += complex128(conj(long[i])) * complex128(long[i+l]) * coarseLTSCorr
	}
	fine := float32(cmplx.Phase(fineSum)) / float32(l)

	return coarse + fine
}

// Correct applies the inverse rotation out[i] = s[i] * exp(-j*phi*i) to an
// arbitrary slice, i indexed from the start of the slice. The phasor is
// advanced by cumulative multiplication rather than recomputed per sample.
func Correct(s training.Sequence, phi float32) training.Sequence {
	step := cmplx.Exp(complex(0, -float64(phi)))
	out := make(training.Sequence, len(s))
	corr := complex128(1)
	for i, v := range s {
		out[i] = training.Sample(complex128(v) * corr)
		corr *= step
	}
	return out
}

func conj(s training.Sample) training.Sample {
	return complex(real(s), -imag(s))
}
