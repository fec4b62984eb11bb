package radio

import (
	"fmt"

	hamlib "github.com/xylo04/goHamlib"
)

// Controller tunes a transceiver and keys/unkeys it for transmit, via
// Hamlib. It is independent of Frontend: the audio or IQ path still goes
// through an AudioFrontend/SerialFrontend, this only drives frequency and
// PTT on the radio itself.
type Controller struct {
	rig *hamlib.Rig
}

// NewController opens a Hamlib rig by model number (see "rigctl -l") on the
// given serial port.
func NewController(model int, port string) (*Controller, error) {
	rig := hamlib.NewRig(model)
	if err := rig.SetConf("rig_pathname", port); err != nil {
		return nil, fmt.Errorf("radio: hamlib set port: %w", err)
	}
	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("radio: hamlib open: %w", err)
	}
	return &Controller{rig: rig}, nil
}

// SetFrequency tunes the current VFO to freqHz.
func (c *Controller) SetFrequency(freqHz float64) error {
	if err := c.rig.SetFreq(hamlib.VFOCurrent, freqHz); err != nil {
		return fmt.Errorf("radio: hamlib set freq: %w", err)
	}
	return nil
}

// SetPTT keys (true) or unkeys (false) the transmitter.
func (c *Controller) SetPTT(on bool) error {
	state := hamlib.PTTOff
	if on {
		state = hamlib.PTTOn
	}
	if err := c.rig.SetPTT(hamlib.VFOCurrent, state); err != nil {
		return fmt.Errorf("radio: hamlib set ptt: %w", err)
	}
	return nil
}

// Close releases the Hamlib rig handle.
func (c *Controller) Close() error {
	return c.rig.Close()
}

// ProbeResult describes whether a Hamlib rig model responded on a port.
type ProbeResult struct {
	Port    string
	Model   int
	Reached bool
	Err     string
}

// ProbeRigs attempts to open each port with the given Hamlib model,
// closing the rig immediately on success. There is no portable way to
// enumerate "connected" rigs short of probing candidate ports this way.
func ProbeRigs(model int, ports []string) []ProbeResult {
	results := make([]ProbeResult, 0, len(ports))
	for _, p := range ports {
		res := ProbeResult{Port: p, Model: model}
		ctl, err := NewController(model, p)
		if err != nil {
			res.Err = err.Error()
		} else {
			res.Reached = true
			ctl.Close()
		}
		results = append(results, res)
	}
	return results
}
