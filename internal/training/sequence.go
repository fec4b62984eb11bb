// Package training holds the short and long training sequences (STS/LTS)
// and the frequency-domain LTS reference derived from them. Values here are
// loaded once at config load time and shared read-only by every pipeline
// stage — never cloned per packet.
package training

import (
	"bufio"
	"fmt"
	"io"
	"math/cmplx"
	"os"
	"strconv"
	"strings"

	"github.com/venkat-chanest/ofdm-chanest/internal/dsp"
)

// Sample is a single complex baseband I/Q sample.
type Sample = complex64

// Sequence is an ordered, immutable run of samples (an STS or LTS).
type Sequence []Sample

// Subcarrier is one frequency-domain bin: either a complex gain/reference,
// or explicitly absent (DC, guard bands, or a bin the LTS never energized).
type Subcarrier struct {
	Value   Sample
	Present bool
}

// SubcarrierVector is a per-subcarrier (complex or absent) sequence, used
// both for the LTS frequency-domain reference and for a per-packet
// equalisation vector.
type SubcarrierVector []Subcarrier

// absentSubcarrierThreshold is the fraction of the max FFT magnitude below
// which a bin is considered absent (spec §3: "element is absent iff its
// magnitude is <1% of the max magnitude").
const absentSubcarrierThreshold = 0.01

// ParseSequence parses the training-sequence text format: one float per
// line, even-indexed lines are real parts, odd-indexed are imaginary parts.
// Blank lines are ignored; the count of non-blank lines must be even.
func ParseSequence(r io.Reader) (Sequence, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("training: malformed value %q: %w", line, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("training: read sequence: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("training: empty sequence")
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("training: odd number of values (%d); file must interleave real/imaginary", len(values))
	}

	seq := make(Sequence, len(values)/2)
	for i := range seq {
		seq[i] = complex(float32(values[2*i]), float32(values[2*i+1]))
	}
	return seq, nil
}

// LoadSequenceFile reads and parses a training-sequence file from disk.
func LoadSequenceFile(path string) (Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("training: open %s: %w", path, err)
	}
	defer f.Close()

	seq, err := ParseSequence(f)
	if err != nil {
		return nil, fmt.Errorf("training: %s: %w", path, err)
	}
	return seq, nil
}

// Store is the shared-immutable config input every pipeline stage consults:
// the STS, the LTS, and the LTS frequency-domain reference derived from it.
type Store struct {
	STS     Sequence
	LTS     Sequence
	LTSFreq SubcarrierVector
}

// NewStore validates the STS/LTS and derives the frequency-domain LTS
// reference. L (len(lts)) must be even and divisible by 4, per the pipeline's
// guard-interval and cyclic-prefix arithmetic.
func NewStore(sts, lts Sequence) (*Store, error) {
	if len(sts) == 0 {
		return nil, fmt.Errorf("training: empty STS")
	}
	if len(lts) == 0 {
		return nil, fmt.Errorf("training: empty LTS")
	}
	if len(lts)%4 != 0 {
		return nil, fmt.Errorf("training: LTS length %d must be divisible by 4", len(lts))
	}

	return &Store{
		STS:     sts,
		LTS:     lts,
		LTSFreq: deriveLTSFrequency(lts),
	}, nil
}

// deriveLTSFrequency computes the LTS-freq reference in 64-bit precision
// (spec §9: "compute the one-time LTS-FFT in 64-bit to place the absence
// threshold accurately"), using the same "inverse" DFT direction the
// equaliser later uses on received data, per the FFT direction convention
// documented in internal/equalize.
func deriveLTSFrequency(lts Sequence) SubcarrierVector {
	in := make([]complex128, len(lts))
	for i, s := range lts {
		in[i] = complex(float64(real(s)), float64(imag(s)))
	}
	out := dsp.IFFT64(in)

	maxMag := 0.0
	for _, v := range out {
		if m := cmplx.Abs(v); m > maxMag {
			maxMag = m
		}
	}

	ref := make(SubcarrierVector, len(out))
	threshold := absentSubcarrierThreshold * maxMag
	for k, v := range out {
		if cmplx.Abs(v) < threshold {
			ref[k] = Subcarrier{Present: false}
			continue
		}
		ref[k] = Subcarrier{
			Value:   complex(float32(real(v)), float32(imag(v))),
			Present: true,
		}
	}
	return ref
}
