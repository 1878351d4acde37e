package transport

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"

	"timini-print/internal/device"
)

// Serial writes the command stream over a wired (USB-serial or bound
// RFCOMM) port. Blocking by construction: no discovery, no negotiation.
type Serial struct{}

func (Serial) Deliver(ctx context.Context, data []byte, target device.Resolved) error {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(target.Address, mode)
	if err != nil {
		return fmt.Errorf("%w: open port %s: %v", ErrTransport, target.Address, err)
	}
	defer port.Close()

	err = writeChunks(ctx, data, target.Profile.MTUFor(device.KindSerial), target.Profile.Interval(), func(chunk []byte) error {
		_, werr := port.Write(chunk)
		return werr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: write to %s: %v", ErrTransport, target.Address, err)
	}
	return nil
}
