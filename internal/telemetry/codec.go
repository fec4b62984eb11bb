package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/venkat-chanest/ofdm-chanest/internal/fec"
)

// reportDataShards/reportParityShards size the Reed-Solomon frame for a
// JSON-encoded ChannelReport, which is small (a few kilobytes for 64
// subcarriers) —
// nowhere near the 223-shard default tuned for bulk transfer.
const (
	reportDataShards   = 16
	reportParityShards = 4
)

// Codec frames ChannelReports with a CRC-32 and Reed-Solomon parity so a
// report written to disk or shipped over an unreliable transport can be
// verified, and partially recovered, independent of its transport.
type Codec struct {
	rs *fec.RSEncoder
}

// NewCodec builds a Codec. Construction is cheap enough to do once and
// reuse; callers needing one per goroutine should still share a single
// Codec since RSEncoder holds no mutable state.
func NewCodec() (*Codec, error) {
	rs, err := fec.NewRSEncoderCustom(reportDataShards, reportParityShards)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build reed-solomon codec: %w", err)
	}
	return &Codec{rs: rs}, nil
}

// Encode serialises a report to JSON, appends a CRC-32, and wraps the
// result in Reed-Solomon parity shards.
func (c *Codec) Encode(r ChannelReport) ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("telemetry: marshal report: %w", err)
	}

	// Reed-Solomon shards are padded to a uniform size, so the exact
	// pre-padding length must travel with the frame to strip that padding
	// back off on decode.
	body := fec.FrameLengthPrefixed(payload)

	framed, err := c.rs.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("telemetry: encode frame: %w", err)
	}
	return framed, nil
}

// Decode reverses Encode: unwinds the Reed-Solomon frame, checks the
// CRC-32, and unmarshals the report. erasures names shard indices known to
// be missing or corrupted (e.g. from a transport that reports dropped
// chunks); pass none when the frame is believed intact.
func (c *Codec) Decode(framed []byte, erasures ...int) (ChannelReport, error) {
	var report ChannelReport
	body, err := c.rs.Decode(framed, erasures...)
	if err != nil {
		return report, fmt.Errorf("telemetry: decode frame: %w", err)
	}
	payload, ok := fec.UnframeLengthPrefixed(body)
	if !ok {
		return report, fmt.Errorf("telemetry: CRC-32 mismatch after reed-solomon recovery")
	}
	if err := json.Unmarshal(payload, &report); err != nil {
		return report, fmt.Errorf("telemetry: unmarshal report: %w", err)
	}
	return report, nil
}
