package radio

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// WaitForTTY blocks until a tty device node matching subsystem appears (or
// already exists), returning its devnode path. Useful for a USB-serial SDR
// companion that isn't present at program start.
func WaitForTTY(ctx context.Context) (string, error) {
	u := udev.Udev{}

	enum := u.NewEnumerate()
	enum.AddMatchSubsystem("tty")
	existing, err := enum.Devices()
	if err == nil {
		for _, d := range existing {
			if d.Devnode() != "" {
				return d.Devnode(), nil
			}
		}
	}

	mon := u.NewMonitorFromNetlink("udev")
	mon.FilterAddMatchSubsystem("tty")

	devCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return "", fmt.Errorf("radio: start udev monitor: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err := <-errCh:
			return "", fmt.Errorf("radio: udev monitor: %w", err)
		case d := <-devCh:
			if d.Action() == "add" && d.Devnode() != "" {
				return d.Devnode(), nil
			}
		}
	}
}
