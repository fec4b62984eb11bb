package radio

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/pkg/term"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// serialSampleScale converts between a training.Sample's float range and
// the 16-bit signed I/Q pairs carried over the wire.
const serialSampleScale = 32767.0

// SerialFrontend drives a radio whose baseband I/Q samples arrive as a raw
// binary stream of interleaved little-endian int16 I/Q pairs over a serial
// line, the common case for an SDR dongle's USB-serial companion port.
type SerialFrontend struct {
	fd *term.Term
}

// NewSerialFrontend opens device at baud in raw mode.
func NewSerialFrontend(device string, baud int) (*SerialFrontend, error) {
	fd, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("radio: open serial port %s: %w", device, err)
	}
	if err := fd.SetSpeed(baud); err != nil {
		fd.Close()
		return nil, fmt.Errorf("radio: set serial speed: %w", err)
	}
	return &SerialFrontend{fd: fd}, nil
}

// Send writes samples as interleaved int16 I/Q pairs.
func (f *SerialFrontend) Send(ctx context.Context, samples training.Sequence) error {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[4*i:], uint16(int16(real(s)*serialSampleScale)))
		binary.LittleEndian.PutUint16(buf[4*i+2:], uint16(int16(imag(s)*serialSampleScale)))
	}
	for len(buf) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := f.fd.Write(buf)
		if err != nil {
			return fmt.Errorf("radio: serial write: %w", err)
		}
		buf = buf[n:]
	}
	return nil
}

// Recv reads n samples worth of interleaved int16 I/Q pairs.
func (f *SerialFrontend) Recv(ctx context.Context, n int) (training.Sequence, error) {
	raw := make([]byte, 4*n)
	read := 0
	for read < len(raw) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := f.fd.Read(raw[read:])
		if err != nil {
			return nil, fmt.Errorf("radio: serial read: %w", err)
		}
		read += m
	}

	out := make(training.Sequence, n)
	for i := range out {
		re := int16(binary.LittleEndian.Uint16(raw[4*i:]))
		im := int16(binary.LittleEndian.Uint16(raw[4*i+2:]))
		out[i] = training.Sample(complex(float32(re)/serialSampleScale, float32(im)/serialSampleScale))
	}
	return out, nil
}

// Close closes the underlying serial port.
func (f *SerialFrontend) Close() error {
	return f.fd.Close()
}
