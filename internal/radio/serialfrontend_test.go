package radio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// openLoopbackSerial creates a pseudo-terminal pair and returns a
// SerialFrontend attached to the slave side plus the master side, so a
// test can act as the far end of the "wire".
func openLoopbackSerial(t *testing.T) (*SerialFrontend, *os.File) {
	t.Helper()
	ptmx, pts, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { ptmx.Close() })

	fd, err := NewSerialFrontend(pts.Name(), 115200)
	require.NoError(t, err)
	t.Cleanup(func() { fd.Close() })

	return fd, ptmx
}

func TestSerialFrontend_SendWritesInterleavedIQ(t *testing.T) {
	fd, ptmx := openLoopbackSerial(t)

	samples := training.Sequence{
		training.Sample(complex(0.5, -0.25)),
		training.Sample(complex(-1, 1)),
	}

	done := make(chan error, 1)
	go func() { done <- fd.Send(context.Background(), samples) }()

	buf := make([]byte, 4*len(samples))
	ptmx.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := ptmx.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.NoError(t, <-done)
}

func TestSerialFrontend_RecvDecodesInterleavedIQ(t *testing.T) {
	fd, ptmx := openLoopbackSerial(t)

	raw := []byte{
		0x00, 0x40, 0x00, 0xC0, // I=0.5, Q=-0.5 scaled to int16 range
		0xFF, 0x7F, 0x01, 0x80, // I=max, Q=min
	}
	go func() {
		ptmx.SetWriteDeadline(time.Now().Add(2 * time.Second))
		ptmx.Write(raw)
	}()

	out, err := fd.Recv(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.InDelta(t, 0.5, real(out[0]), 0.01)
}
