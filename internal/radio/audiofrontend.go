package radio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// AudioFrameSize is the PortAudio buffer length used for both capture and
// playback; it need not match any OFDM symbol length since Send/Recv chunk
// and reassemble across frames.
const AudioFrameSize = 576

// AudioFrontend drives an audio interface as a baseband radio front-end: a
// soundcard has no I/Q mixer, so samples are carried as real-valued and
// treated as complex with a zero imaginary component. This loses the
// negative-frequency half of the spectrum but is a standard cheap way to
// exercise the pipeline end-to-end over a real transducer.
type AudioFrontend struct {
	sampleRate float64
	in         *portaudio.Stream
	out        *portaudio.Stream
	inBuf      []float32
	outBuf     []float32
	mu         sync.Mutex
}

// DeviceInfo mirrors what PortAudio reports for one audio device.
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

// ListDevices enumerates audio devices available to PortAudio.
func ListDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("radio: list audio devices: %w", err)
	}
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = DeviceInfo{
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
		}
	}
	return out, nil
}

// NewAudioFrontend opens a full-duplex default-device stream at sampleRate.
func NewAudioFrontend(sampleRate float64) (*AudioFrontend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("radio: initialize portaudio: %w", err)
	}

	a := &AudioFrontend{
		sampleRate: sampleRate,
		inBuf:      make([]float32, AudioFrameSize),
		outBuf:     make([]float32, AudioFrameSize),
	}

	inStream, err := portaudio.OpenDefaultStream(1, 0, sampleRate, AudioFrameSize, a.inBuf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("radio: open input stream: %w", err)
	}
	outStream, err := portaudio.OpenDefaultStream(0, 1, sampleRate, AudioFrameSize, a.outBuf)
	if err != nil {
		inStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("radio: open output stream: %w", err)
	}

	if err := inStream.Start(); err != nil {
		inStream.Close()
		outStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("radio: start input stream: %w", err)
	}
	if err := outStream.Start(); err != nil {
		inStream.Close()
		outStream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("radio: start output stream: %w", err)
	}

	a.in = inStream
	a.out = outStream
	return a, nil
}

// Send writes samples to the output device in AudioFrameSize chunks, using
// only the real component.
func (a *AudioFrontend) Send(ctx context.Context, samples training.Sequence) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < len(samples); i += AudioFrameSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := i + AudioFrameSize
		chunk := a.outBuf
		for j := range chunk {
			if i+j < len(samples) && i+j < end {
				chunk[j] = real(samples[i+j])
			} else {
				chunk[j] = 0
			}
		}
		if err := a.out.Write(); err != nil {
			return fmt.Errorf("radio: audio write: %w", err)
		}
	}
	return nil
}

// Recv reads n samples from the input device, padding the final chunk with
// silence.
func (a *AudioFrontend) Recv(ctx context.Context, n int) (training.Sequence, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(training.Sequence, 0, n)
	for len(out) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.in.Read(); err != nil {
			return nil, fmt.Errorf("radio: audio read: %w", err)
		}
		for _, v := range a.inBuf {
			if len(out) == n {
				break
			}
			out = append(out, training.Sample(complex(v, 0)))
		}
	}
	return out, nil
}

func (a *AudioFrontend) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.in != nil {
		if err := a.in.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.out != nil {
		if err := a.out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
