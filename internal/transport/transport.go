// Package transport streams encoded command bytes to the physical
// printer link, BLE or serial, under the profile's MTU and pacing
// constraints.
package transport

import (
	"context"
	"errors"
	"time"

	"timini-print/internal/device"
)

var ErrTransport = errors.New("transport failure")

// Transport delivers one command stream to a resolved device. The
// stream is owned by the transport for the duration of the call; no
// state is retained afterwards.
type Transport interface {
	Deliver(ctx context.Context, data []byte, target device.Resolved) error
}

// Chunks slices data into consecutive mtu-sized pieces; the last one
// may be shorter. Boundaries are purely positional, never content
// based, so concatenating the chunks reproduces the input exactly.
func Chunks(data []byte, mtu int) [][]byte {
	if mtu < 1 {
		mtu = 1
	}
	chunks := make([][]byte, 0, (len(data)+mtu-1)/mtu)
	for i := 0; i < len(data); i += mtu {
		end := i + mtu
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[i:end])
	}
	return chunks
}

// writeChunks pushes data through write one MTU at a time, pausing
// between chunks. The printer's buffer cannot absorb an unthrottled
// burst, so the pacing is mandatory, not an optimization.
func writeChunks(ctx context.Context, data []byte, mtu int, interval time.Duration, write func([]byte) error) error {
	for _, chunk := range Chunks(data, mtu) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := write(chunk); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}
