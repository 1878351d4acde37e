package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"timini-print/internal/device"
)

// All outbound printer writes go to this GATT characteristic.
var writeCharUUID = bluetooth.New16BitUUID(0xAE01)

var (
	adapterOnce sync.Once
	adapterErr  error
)

func enableAdapter() (*bluetooth.Adapter, error) {
	adapter := bluetooth.DefaultAdapter
	adapterOnce.Do(func() {
		adapterErr = adapter.Enable()
	})
	if adapterErr != nil {
		return nil, fmt.Errorf("%w: enable BLE adapter: %v", ErrTransport, adapterErr)
	}
	return adapter, nil
}

// BLEScanner runs bounded discovery scans against the host radio. It
// implements device.Scanner.
type BLEScanner struct{}

// Scan collects advertisements until the timeout elapses or ctx is
// cancelled. Each device appears once, under the first name it
// advertised.
func (BLEScanner) Scan(ctx context.Context, timeout time.Duration) ([]device.Advertisement, error) {
	adapter, err := enableAdapter()
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		seen  = map[string]bool{}
		found []device.Advertisement
	)

	done := make(chan error, 1)
	go func() {
		done <- adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			mu.Lock()
			defer mu.Unlock()
			addr := result.Address.String()
			if !seen[addr] {
				seen[addr] = true
				found = append(found, device.Advertisement{Address: addr, Name: result.LocalName()})
			}
		})
	}()

	select {
	case <-ctx.Done():
		adapter.StopScan()
		<-done
		return nil, ctx.Err()
	case <-time.After(timeout):
		adapter.StopScan()
		if err := <-done; err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrTransport, err)
		}
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrTransport, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	return found, nil
}

// BLE streams the command bytes to the printer's write characteristic
// in MTU-sized chunks, fire-and-forget, paced by the profile interval.
type BLE struct{}

func (BLE) Deliver(ctx context.Context, data []byte, target device.Resolved) error {
	adapter, err := enableAdapter()
	if err != nil {
		return err
	}

	mac, err := bluetooth.ParseMAC(target.Address)
	if err != nil {
		return fmt.Errorf("%w: bad BLE address %q: %v", ErrTransport, target.Address, err)
	}
	addr := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}

	dev, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v", ErrTransport, target.Address, err)
	}
	defer dev.Disconnect()

	char, err := findWriteCharacteristic(dev)
	if err != nil {
		return err
	}

	err = writeChunks(ctx, data, target.Profile.MTUFor(device.KindBLE), target.Profile.Interval(), func(chunk []byte) error {
		_, werr := char.WriteWithoutResponse(chunk)
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

func findWriteCharacteristic(dev bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("%w: discover services: %v", ErrTransport, err)
	}
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{writeCharUUID})
		if err != nil || len(chars) == 0 {
			continue
		}
		return chars[0], nil
	}
	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("%w: device exposes no %s characteristic", ErrTransport, writeCharUUID.String())
}
