package radio

import (
	"context"
	"fmt"

	"github.com/venkat-chanest/ofdm-chanest/internal/training"
)

// PTTFrontend wraps a Frontend, keying an external PTT line for the
// duration of each transmit burst. Receive passes through unchanged.
type PTTFrontend struct {
	Frontend
	ptt *GPIOPTT
}

// NewPTTFrontend wraps inner so every Send is bracketed by ptt.Set(true)
// and ptt.Set(false).
func NewPTTFrontend(inner Frontend, ptt *GPIOPTT) *PTTFrontend {
	return &PTTFrontend{Frontend: inner, ptt: ptt}
}

// Send keys PTT, transmits samples on the wrapped front-end, then unkeys
// PTT regardless of the send outcome.
func (f *PTTFrontend) Send(ctx context.Context, samples training.Sequence) error {
	if err := f.ptt.Set(true); err != nil {
		return fmt.Errorf("radio: key ptt: %w", err)
	}
	defer f.ptt.Set(false)
	return f.Frontend.Send(ctx, samples)
}

// Close unkeys and releases the GPIO line before closing the wrapped
// front-end.
func (f *PTTFrontend) Close() error {
	pttErr := f.ptt.Close()
	feErr := f.Frontend.Close()
	if pttErr != nil {
		return pttErr
	}
	return feErr
}
