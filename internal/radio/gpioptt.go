package radio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOPTT keys a transmitter by driving a GPIO line, for setups (e.g. a
// Raspberry Pi keying a radio's PTT input directly) with no rig-control
// interface to go through.
type GPIOPTT struct {
	line *gpiocdev.Line
}

// NewGPIOPTT requests offset on chip as an output, initially unkeyed.
func NewGPIOPTT(chip string, offset int) (*GPIOPTT, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("radio: request gpio line: %w", err)
	}
	return &GPIOPTT{line: line}, nil
}

// Set keys (true) or unkeys (false) the line.
func (p *GPIOPTT) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := p.line.SetValue(v); err != nil {
		return fmt.Errorf("radio: set gpio ptt: %w", err)
	}
	return nil
}

// Close releases the GPIO line request, leaving it unkeyed.
func (p *GPIOPTT) Close() error {
	if err := p.line.SetValue(0); err != nil {
		p.line.Close()
		return fmt.Errorf("radio: unkey gpio ptt on close: %w", err)
	}
	return p.line.Close()
}
