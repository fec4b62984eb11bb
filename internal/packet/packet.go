// Package packet composes the alignment, CFO, and equalisation stages into
// the top-level 802.11-style receive pipeline: from a packet candidate
// buffer, produce equalised constellation points for every data symbol.
package packet

import (
	"fmt"
	"math"

	"github.com/venkat-chanest/ofdm-chanest/internal/align"
	"github.com/venkat-chanest/ofdm-chanest/internal/cfo"
	"github.com/venkat-chanest/ofdm-chanest/internal/equalize"
	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// rmsDropFraction is the end-of-packet heuristic threshold: a data symbol
// whose root-sum-square amplitude falls below this fraction of the long
// preamble's root-sum-square is treated as past the end of the packet.
const rmsDropFraction = 0.1

// Result is the outcome of parsing one candidate buffer: the estimated CFO,
// the equalisation vector used for every symbol, and the demodulated
// constellation points grouped per symbol.
type Result struct {
	CFO     float32
	EqVec   training.SubcarrierVector
	Symbols [][]training.Sample
}

// Parse runs the full receive pipeline on a packet candidate buffer: align
// to the LTS, estimate and correct CFO, estimate subcarrier equalisation,
// then demodulate data symbols until the end-of-packet heuristic fires or
// the buffer is exhausted.
//
// s and l are the STS and LTS lengths from store; buf must be long enough
// to contain the search window used for alignment (pkt_spacing + 10*s +
// 5*l/2 samples), per the packet-trigger's guard-interval contract.
func Parse(buf training.Sequence, store *training.Store, pktSpacing uint64) (Result, error) {
	s := len(store.STS)
	l := len(store.LTS)

	searchLen := int(pktSpacing) + 10*s + 5*l/2
	if searchLen > len(buf) {
		searchLen = len(buf)
	}
	ltsStart := align.Align(buf[:searchLen], store.LTS)

	if ltsStart < 10*s {
		return Result{}, fmt.Errorf("packet: aligned LTS start %d too early for %d-sample short preamble", ltsStart, 10*s)
	}
	if ltsStart+5*l/2 > len(buf) {
		return Result{}, fmt.Errorf("packet: buffer too short for long preamble at offset %d", ltsStart)
	}

	short := buf[ltsStart-10*s : ltsStart]
	long := buf[ltsStart : ltsStart+5*l/2]

	phi := cfo.Estimate(short, long)
	// Correct from ltsStart onwards in one pass so that each data symbol
	// keeps the phase it has relative to the long preamble.
	corrected := cfo.Correct(buf[ltsStart:], phi)
	longCorrected := corrected[:5*l/2]

	eq := equalize.EstimateSubcarrier(longCorrected, store.LTSFreq)

	rmsLong := rms(longCorrected)

	var symbols [][]training.Sample
	stride := 5 * l / 4
	cpLen := l / 4

	for i := ltsStart + 5*l/2; i+stride <= len(buf); i += stride {
		symCP := buf[i+cpLen : i+cpLen+l]

		if rms(symCP) < rmsDropFraction*rmsLong {
			break
		}

		off := i + cpLen - ltsStart
		points := equalize.EqualizeSymbol(corrected[off:off+l], eq)
		symbols = append(symbols, points)
	}

	return Result{CFO: phi, EqVec: eq, Symbols: symbols}, nil
}

func rms(seq training.Sequence) float32 {
	var sumSq float64
	for _, v := range seq {
		r, im := float64(real(v)), float64(imag(v))
		sumSq += r*r + im*im
	}
	return float32(math.Sqrt(sumSq))
}
