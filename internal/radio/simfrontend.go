package radio

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sync"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// MultipathTap is one delayed, attenuated copy of the transmitted signal,
// delay given in seconds.
type MultipathTap struct {
	Delay float64
	Gain  complex64
}

// SimulatorConfig parameterises a synthetic point-to-point radio channel:
// a fixed or drifting carrier frequency offset, additive noise, phase
// noise, and a tapped-delay multipath profile. SampRate converts multipath
// tap delays to sample offsets; StartFreq is descriptive only — the core
// treats samples as baseband regardless.
type SimulatorConfig struct {
	MaxStartTimeOffset int
	SampRate           float64
	StartFreq          float64
	MaxCFO             float32
	CFODrift           float32
	PhaseNoise         float32
	Noise              float32
	Multipath          []MultipathTap
}

// simChannel is the shared medium between one SimFrontend in Tx mode and
// one in Rx mode: every Send appends post-channel samples, every Recv
// drains from the front.
type simChannel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	cfg    SimulatorConfig
	rng    *rand.Rand
	ether  []complex64
	pos    int
	phase  float64
	tapSamps []int
	history  []complex64
	closed bool
}

func newSimChannel(cfg SimulatorConfig, rng *rand.Rand) *simChannel {
	c := &simChannel{cfg: cfg, rng: rng}
	c.cond = sync.NewCond(&c.mu)
	for _, tap := range cfg.Multipath {
		c.tapSamps = append(c.tapSamps, int(math.Round(tap.Delay*cfg.SampRate)))
	}
	maxDelay := 0
	for _, d := range c.tapSamps {
		if d > maxDelay {
			maxDelay = d
		}
	}
	c.history = make([]complex64, maxDelay)
	if cfg.MaxStartTimeOffset > 0 {
		c.ether = make([]complex64, rng.Intn(cfg.MaxStartTimeOffset))
	}
	return c
}

// push applies CFO (with drift), a tapped-delay multipath profile carried
// across calls via a history tail, phase noise, and additive noise, then
// appends the result to the medium.
func (c *simChannel) push(samples []complex64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rotated := make([]complex64, len(samples))
	for i, s := range samples {
		jitter := 0.0
		if c.cfg.PhaseNoise > 0 {
			jitter = c.rng.NormFloat64() * float64(c.cfg.PhaseNoise)
		}
		rot := cmplx.Exp(complex(0, c.phase+jitter))
		rotated[i] = complex64(complex128(s) * rot)
		c.phase += float64(c.cfg.MaxCFO) + float64(c.cfg.CFODrift)*float64(i)
	}

	full := append(append([]complex64{}, c.history...), rotated...)
	out := make([]complex64, len(rotated))
	for n := range out {
		idx := n + len(c.history)
		out[n] = full[idx]
		for ti, tap := range c.cfg.Multipath {
			d := c.tapSamps[ti]
			if idx-d >= 0 {
				out[n] += tap.Gain * full[idx-d]
			}
		}
		if c.cfg.Noise > 0 {
			out[n] += complex(float32(c.rng.NormFloat64())*c.cfg.Noise, float32(c.rng.NormFloat64())*c.cfg.Noise)
		}
	}

	if len(c.history) > 0 {
		if len(rotated) >= len(c.history) {
			c.history = append([]complex64{}, rotated[len(rotated)-len(c.history):]...)
		} else {
			c.history = append(c.history[len(rotated):], rotated...)
		}
	}

	c.ether = append(c.ether, out...)
	c.cond.Broadcast()
}

func (c *simChannel) pull(ctx context.Context, n int) ([]complex64, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.ether)-c.pos < n {
		if c.closed {
			return nil, fmt.Errorf("radio: simulator channel closed")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.cond.Wait()
	}
	out := append([]complex64{}, c.ether[c.pos:c.pos+n]...)
	c.pos += n
	return out, nil
}

func (c *simChannel) close() {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// SimFrontend is one end of a simulated point-to-point link created by
// NewSimulatorPair.
type SimFrontend struct {
	tx *simChannel // Send target, nil if this end only receives
	rx *simChannel // Recv source, nil if this end only transmits
}

// NewSimulatorPair returns a (transmitter, receiver) Frontend pair sharing
// one synthetic channel: samples sent on tx arrive, channel-corrupted, on
// rx.
func NewSimulatorPair(cfg SimulatorConfig, rng *rand.Rand) (tx, rx *SimFrontend) {
	shared := newSimChannel(cfg, rng)
	return &SimFrontend{tx: shared}, &SimFrontend{rx: shared}
}

func (f *SimFrontend) Send(_ context.Context, samples training.Sequence) error {
	if f.tx == nil {
		return fmt.Errorf("radio: simulator front-end is receive-only")
	}
	raw := make([]complex64, len(samples))
	for i, s := range samples {
		raw[i] = complex64(s)
	}
	f.tx.push(raw)
	return nil
}

func (f *SimFrontend) Recv(ctx context.Context, n int) (training.Sequence, error) {
	if f.rx == nil {
		return nil, fmt.Errorf("radio: simulator front-end is transmit-only")
	}
	raw, err := f.rx.pull(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make(training.Sequence, len(raw))
	for i, s := range raw {
		out[i] = training.Sample(s)
	}
	return out, nil
}

func (f *SimFrontend) Close() error {
	if f.tx != nil {
		f.tx.close()
	}
	if f.rx != nil {
		f.rx.close()
	}
	return nil
}
