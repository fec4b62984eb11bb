// Package equalize estimates and applies per-subcarrier channel
// equalisation from a CFO-corrected long preamble.
package equalize

import (
	"github.com/venkat-chanest/ofdm-chanest/internal/dsp"
	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// EstimateSubcarrier computes the per-subcarrier complex gain that inverts
// the channel, from a CFO-corrected long preamble (length 5*L/2: L/2 guard
// + two L-sample LTS repeats) and the LTS frequency-domain
// reference.
//
// Subcarrier k is absent in the result iff ref[k] is absent. The two LTS
// repeats are averaged before transforming, halving the variance
// contributed by additive noise.
//
// FFT direction convention: this uses the same "inverse-direction" DFT
// (dsp.IFFT32) that internal/training used (in 64-bit) to derive ref.
// Reversing one but not the other silently conjugates the output — see
// spec §9.
func EstimateSubcarrier(long training.Sequence, ref training.SubcarrierVector) training.SubcarrierVector {
	l := len(ref)

	avg := make([]complex64, l)
	for k := 0; k < l; k++ {
		avg[k] = (long[l/2+k] + long[3*l/2+k]) / 2
	}

	spectrum := dsp.IFFT32(avg)

	eq := make(training.SubcarrierVector, l)
	for k := 0; k < l; k++ {
		if !ref[k].Present {
			continue
		}
		eq[k] = training.Subcarrier{
			Value:   ref[k].Value / training.Sample(spectrum[k]),
			Present: true,
		}
	}
	return eq
}

// EqualizeSymbol takes the time-domain samples of one OFDM data symbol
// (cyclic prefix already removed, length L) and an equalisation vector,
// and returns the equalised constellation points for every present
// subcarrier, in subcarrier-index order. The output length equals the
// number of present subcarriers.
func EqualizeSymbol(sym training.Sequence, eq training.SubcarrierVector) []training.Sample {
	in := make([]complex64, len(sym))
	for i, s := range sym {
		in[i] = complex64(s)
	}
	spectrum := dsp.IFFT32(in)

	l := training.Sample(complex(float32(len(sym)), 0))

	out := make([]training.Sample, 0, len(eq))
	for k, e := range eq {
		if !e.Present {
			continue
		}
		out = append(out, training.Sample(spectrum[k])*e.Value/l)
	}
	return out
}
