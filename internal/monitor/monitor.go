// Package monitor drives the receive pipeline against a cooperating
// transmitter, reporting channel estimates over time while honouring a
// configurable transmit duty cycle so the medium stays shareable.
package monitor

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/venkat-chanest/ofdm-chanest/internal/align"
	"github.com/venkat-chanest/ofdm-chanest/internal/cfo"
	"github.com/venkat-chanest/ofdm-chanest/internal/equalize"
	"github.com/venkat-chanest/ofdm-chanest/internal/radio"
	"github.com/venkat-chanest/ofdm-chanest/internal/training"
	"github.com/venkat-chanest/ofdm-chanest/internal/trigger"
)

// Config parameterises one monitor session: the trigger parameters, the
// shared training store, and the repeated-preamble transmit pattern.
type Config struct {
	Trigger    trigger.Config
	Store      *training.Store
	NumRepeats uint64
	DutyCycle  float32
}

func buildPreamble(store *training.Store) training.Sequence {
	s, l := len(store.STS), len(store.LTS)
	preamble := make(training.Sequence, 0, 10*s+l/2+2*l)
	for i := 0; i < 10*s; i++ {
		preamble = append(preamble, store.STS[i%s])
	}
	preamble = append(preamble, make(training.Sequence, l/2)...)
	for i := 0; i < 2*l; i++ {
		preamble = append(preamble, store.LTS[i%l])
	}
	return preamble
}

// RunTx transmits the repeated-preamble pattern until ctx is cancelled or
// close is set: NumRepeats copies of the preamble, then a silence period
// sized by DutyCycle, repeated forever.
//
// A DutyCycle of exactly 1.0 means "never insert silence" — the
// once-undefined behaviour for that edge, resolved here rather than
// carrying forward the source's assertion, which would otherwise fire on
// every run at full duty cycle.
func RunTx(ctx context.Context, fe radio.Frontend, cfg Config, close *atomic.Bool) error {
	if cfg.DutyCycle <= 0 || cfg.DutyCycle > 1 {
		return fmt.Errorf("monitor: duty cycle %v out of range (0,1]", cfg.DutyCycle)
	}
	l := len(cfg.Store.LTS)

	preamble := buildPreamble(cfg.Store)

	var silence training.Sequence
	if cfg.DutyCycle < 1.0 {
		silenceLen := int(math.Round(float64(len(preamble)) * (1/float64(cfg.DutyCycle) - 1)))
		if silenceLen <= l/2 {
			return fmt.Errorf("monitor: silence length %d too short relative to LTS guard %d", silenceLen, l/2)
		}
		silence = make(training.Sequence, silenceLen)
	}

	for !close.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := uint64(0); i < cfg.NumRepeats; i++ {
			if err := fe.Send(ctx, preamble); err != nil {
				return fmt.Errorf("monitor: tx send: %w", err)
			}
		}
		if silence != nil {
			if err := fe.Send(ctx, silence); err != nil {
				return fmt.Errorf("monitor: tx silence: %w", err)
			}
		}
	}
	log.Info("monitor transmitter closed")
	return nil
}

// realignMargin is the maximum sample-clock drift tolerated between
// expected and observed successive preamble starts within one packet.
const realignMargin = 5

// RunRx drives the receive side: feeds incoming samples through the
// packet trigger, and on each detected packet walks the expected
// NumRepeats preamble repetitions, re-aligning within a small margin at
// each one and reporting the equalisation estimate via onEstimate.
func RunRx(ctx context.Context, fe radio.Frontend, cfg Config, onEstimate func(float32, training.SubcarrierVector), close *atomic.Bool) error {
	s, l := len(cfg.Store.STS), len(cfg.Store.LTS)
	if realignMargin >= l/2 {
		return fmt.Errorf("monitor: realign margin %d must be < L/2 (%d)", realignMargin, l/2)
	}

	trig := trigger.New(cfg.Trigger)
	preambleLen := 10*s + 5*l/2 + l/2

	for !close.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf, err := fe.Recv(ctx, 512)
		if err != nil {
			return fmt.Errorf("monitor: rx recv: %w", err)
		}

		for _, samp := range buf {
			pkt, ok := trig.Push(samp)
			if !ok {
				continue
			}
			processPacket(pkt, cfg, s, l, preambleLen, onEstimate)
		}
	}
	log.Info("monitor receiver closed")
	return nil
}

func processPacket(pkt training.Sequence, cfg Config, s, l, preambleLen int, onEstimate func(float32, training.SubcarrierVector)) {
	log.Info("packet detected", "len", len(pkt))

	firstLTSMargin := int(cfg.Trigger.PktSpacing) + preambleLen
	if firstLTSMargin > len(pkt) {
		firstLTSMargin = len(pkt)
	}
	curLTSStart := align.Align(pkt[:firstLTSMargin], cfg.Store.LTS)

	for i := uint64(0); i < cfg.NumRepeats; i++ {
		if curLTSStart-10*s < 0 || curLTSStart+5*l/2 > len(pkt) {
			log.Warn("packet too short for expected repeat, stopping", "repeat", i)
			return
		}

		short := pkt[curLTSStart-10*s : curLTSStart]
		long := pkt[curLTSStart : curLTSStart+5*l/2]

		phi := cfo.Estimate(short, long)
		longCorrected := cfo.Correct(long, phi)

		eq := equalize.EstimateSubcarrier(longCorrected, cfg.Store.LTSFreq)
		onEstimate(phi, eq)

		if i == cfg.NumRepeats-1 {
			break
		}

		expectedStart := curLTSStart + 10*s + 5*l/2
		searchStart := expectedStart - realignMargin
		searchEnd := expectedStart + 5*l/2 + realignMargin
		if searchStart < 0 || searchEnd > len(pkt) {
			log.Warn("insufficient samples to realign, skipping rest of packet", "repeat", i)
			return
		}

		offset := align.Align(pkt[searchStart:searchEnd], cfg.Store.LTS)
		newStart := searchStart + offset
		if abs(newStart-expectedStart) > realignMargin {
			log.Warn("LTS drifted more than expected margin, skipping rest of packet",
				"repeat", i, "expected", expectedStart, "observed", newStart)
			return
		}
		curLTSStart = newStart
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
