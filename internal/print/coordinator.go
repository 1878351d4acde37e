// Package print orchestrates one request end to end: resolve the
// device, compose the raster, encode it, deliver it. One job at a
// time, process-wide.
package print

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"timini-print/internal/device"
	"timini-print/internal/layout"
	"timini-print/internal/transport"
	"timini-print/internal/tspl"
)

// ErrTimeout means the job blew its wall-clock deadline and was
// abandoned. The printer may be left with a partial print.
var ErrTimeout = errors.New("print job deadline exceeded")

const defaultBLETimeout = 60 * time.Second

// Request is one normalized print request. The framing layer
// guarantees Text is non-empty; QR == "" means text-only.
type Request struct {
	Text string
	QR   string
}

type state string

const (
	stateComposing  state = "composing"
	stateEncoding   state = "encoding"
	stateDelivering state = "delivering"
	stateDone       state = "done"
	stateFailed     state = "failed"
)

// Coordinator serializes print jobs onto the one physical link.
type Coordinator struct {
	Target    device.TargetSpec
	Resolver  *device.Resolver
	Transport transport.Transport
	Density   int
	Log       zerolog.Logger

	// BLETimeout bounds a whole BLE job, discovery included. A stuck
	// scan or a stalled write must not wedge the process.
	BLETimeout time.Duration

	mu sync.Mutex
}

// Print runs one job under the job lock. Concurrent callers queue up;
// no two jobs ever interleave chunks on the link.
func (c *Coordinator) Print(ctx context.Context, req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.Log.With().Str("job", uuid.NewString()).Logger()

	var err error
	if c.Target.Kind == device.KindBLE {
		err = c.runWithDeadline(ctx, req, log)
	} else {
		// The serial path performs no discovery; the blocking write is
		// its own bound.
		err = c.run(ctx, req, log)
	}

	if err != nil {
		log.Error().Err(err).Str("state", string(stateFailed)).Msg("print job failed")
		return err
	}
	log.Info().Str("state", string(stateDone)).Msg("print job done")
	return nil
}

func (c *Coordinator) runWithDeadline(ctx context.Context, req Request, log zerolog.Logger) error {
	timeout := c.BLETimeout
	if timeout <= 0 {
		timeout = defaultBLETimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.run(ctx, req, log)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		// Abandon the job; the worker exits at its next ctx check. The
		// device may hold a partial print, which is accepted rather
		// than recovered.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context, req Request, log zerolog.Logger) error {
	log.Debug().Str("state", string(stateComposing)).Msg("resolving device")
	resolved, err := c.Resolver.Resolve(ctx, c.Target)
	if err != nil {
		return err
	}
	log.Debug().
		Str("address", resolved.Address).
		Str("model", resolved.Model).
		Int("width_dots", resolved.Profile.WidthDots).
		Msg("device resolved")

	img, err := layout.Compose(req.Text, req.QR, resolved.Profile.NormalizedWidth())
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	log.Debug().Str("state", string(stateEncoding)).Int("height_dots", img.Bounds().Dy()).Msg("encoding raster")
	data, err := tspl.Encode(img, resolved.Profile, c.Density)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	log.Debug().Str("state", string(stateDelivering)).Int("bytes", len(data)).Msg("delivering")
	return c.Transport.Deliver(ctx, data, resolved)
}
