//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the field modules through the Linux GPIO character device.
type RealReader struct {
	chip    *gpiocdev.Chip
	rainPin *gpiocdev.Line
	dryPin  *gpiocdev.Line
}

// NewRealReader requests both lines on gpiochip0 as pulled-up inputs.
func NewRealReader(pinRain, pinDry int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The modules have open-collector style comparator outputs; pull-up keeps
	// the line defined when a module is unplugged.
	rain, err := chip.RequestLine(pinRain, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request rain pin %d: %w", pinRain, err)
	}

	dry, err := chip.RequestLine(pinDry, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		rain.Close()
		chip.Close()
		return nil, fmt.Errorf("request dry pin %d: %w", pinDry, err)
	}

	return &RealReader{chip: chip, rainPin: rain, dryPin: dry}, nil
}

// Read returns the logical input states.
// Rain is active-low (raw 0 = wet); dry is active-high (raw 1 = dry).
func (r *RealReader) Read() (bool, bool, error) {
	rainRaw, err := r.rainPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read rain pin: %w", err)
	}
	dryRaw, err := r.dryPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read dry pin: %w", err)
	}
	return rainRaw == 0, dryRaw == 1, nil
}

// Close releases both lines and the chip.
func (r *RealReader) Close() error {
	var errs []error
	if r.rainPin != nil {
		if err := r.rainPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rain pin: %w", err))
		}
	}
	if r.dryPin != nil {
		if err := r.dryPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dry pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
