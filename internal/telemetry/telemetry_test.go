package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

func sampleReport() ChannelReport {
	eq := training.SubcarrierVector{
		{Present: true, Value: complex(1, -0.5)},
		{Present: false},
		{Present: true, Value: complex(-0.25, 0.75)},
	}
	return NewReport(0.073, eq)
}

func TestNewReport_PreservesPresenceMask(t *testing.T) {
	r := sampleReport()
	require.Len(t, r.Subcarriers, 3)
	require.True(t, r.Subcarriers[0].Present)
	require.False(t, r.Subcarriers[1].Present)
	require.True(t, r.Subcarriers[2].Present)
	require.InDelta(t, 1.0, r.Subcarriers[0].Real, 1e-6)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)

	r := sampleReport()
	framed, err := codec.Encode(r)
	require.NoError(t, err)

	got, err := codec.Decode(framed)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestCodec_RecoversFromShardErasure(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)

	r := sampleReport()
	framed, err := codec.Encode(r)
	require.NoError(t, err)

	got, err := codec.Decode(framed, 1, 3)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestCodec_DetectsCorruption(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)

	framed, err := codec.Encode(sampleReport())
	require.NoError(t, err)

	for i := range framed {
		framed[i] ^= 0xFF
	}
	_, err = codec.Decode(framed)
	require.Error(t, err)
}

func TestWriter_WriteRead(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "report-%Y%m%d-%H%M%S.rs")
	require.NoError(t, err)

	r := sampleReport()
	path, err := w.writeAt(r, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "report-20260304-050607.rs"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	got, err := w.Read(path)
	require.NoError(t, err)
	require.Equal(t, r, got)
}
