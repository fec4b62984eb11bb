// Package trigger implements the streaming, energy-based packet detector:
// a pure state machine that consumes one sample at a time and emits a
// candidate packet buffer when signal energy rises then falls.
package trigger

import "github.com/venkat-chanest/ofdm-chanest/internal/training"

// state is the trigger's tagged variant, modelled explicitly (not as
// scattered booleans) per the design note that the Packet→Idle transition
// depends on a monotone counter that is easy to get wrong with ad-hoc
// flags.
type state int

const (
	stateSkip state = iota
	stateIdle
	stateInPacket
)

// Config carries the numeric parameters the trigger needs. It is a small
// subset of the full pipeline config (internal/config.Config) so the
// trigger can be constructed and tested independently of training data.
type Config struct {
	// StabilizeSamps is the number of samples discarded at startup while
	// the front-end settles.
	StabilizeSamps uint64
	// PowerTrig is the |s|² threshold that marks both packet start and
	// packet continuation.
	PowerTrig float32
	// PktSpacing is the minimum number of quiet samples that close a
	// packet, and the size of the rolling idle-history window.
	PktSpacing uint64
}

// Trigger is the packet-detection state machine. Zero value is not usable;
// construct with New.
type Trigger struct {
	cfg Config

	st        state
	skipCount uint64
	quiet     uint64

	// hist holds, in Idle, the rolling window of the most recent
	// PktSpacing samples; in InPacket, the entire suspected packet so far.
	hist []training.Sample
}

// New creates a packet trigger in its initial Skip(0) state.
func New(cfg Config) *Trigger {
	return &Trigger{cfg: cfg, st: stateSkip}
}

// Push consumes one sample and returns a candidate packet buffer if, with
// this sample, a full rise-then-fall energy pulse has just closed. At most
// one buffer is emitted per call.
//
// Emitted buffers satisfy: the buffer starts PktSpacing samples before the
// first sample with |s|² > PowerTrig (guard prefix; fewer if fewer samples
// had been seen since start-up), and ends PktSpacing+1 samples after the
// last such sample (guard suffix: the buffer is emitted on the
// (PktSpacing+1)-th quiet sample, which it includes).
func (t *Trigger) Push(samp training.Sample) (training.Sequence, bool) {
	switch t.st {
	case stateSkip:
		if t.skipCount < t.cfg.StabilizeSamps {
			t.skipCount++
			return nil, false
		}
		t.st = stateIdle
		return t.Push(samp)

	case stateIdle:
		t.hist = append(t.hist, samp)
		if normSqr(samp) > t.cfg.PowerTrig {
			t.st = stateInPacket
			t.quiet = 0
			return nil, false
		}
		if uint64(len(t.hist)) > t.cfg.PktSpacing {
			t.hist = append([]training.Sample(nil), t.hist[1:]...)
		}
		return nil, false

	default: // stateInPacket
		t.hist = append(t.hist, samp)
		// Consistent with entry: continuation uses |s|² too (spec.md §9
		// flags the original's |s| vs |s|² asymmetry as a likely bug;
		// this implementation uses |s|² throughout).
		if normSqr(samp) > t.cfg.PowerTrig {
			t.quiet = 0
			return nil, false
		}

		if t.quiet >= t.cfg.PktSpacing {
			res := make(training.Sequence, len(t.hist))
			copy(res, t.hist)

			// Retain the trailing PktSpacing samples as the new idle
			// history (spec §5: "pruned to that bound immediately after
			// each emit").
			keep := t.cfg.PktSpacing
			if keep > uint64(len(t.hist)) {
				keep = uint64(len(t.hist))
			}
			t.hist = append([]training.Sample(nil), t.hist[uint64(len(t.hist))-keep:]...)
			t.st = stateIdle
			return res, true
		}

		t.quiet++
		return nil, false
	}
}

func normSqr(s training.Sample) float32 {
	r, im := real(s), imag(s)
	return r*r + im*im
}
