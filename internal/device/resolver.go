package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDeviceNotFound = errors.New("no matching device found")
	ErrUnknownModel   = errors.New("unknown printer model")
	ErrModelRequired  = errors.New("printer model required for serial targets")
)

// TargetSpec identifies the one printer this process drives. Supplied
// at startup, immutable afterwards.
type TargetSpec struct {
	Kind   Kind
	Target string // BLE name prefix or address, or serial port path
	Model  string // optional model override
}

// Resolved is the outcome of resolution: where to deliver and with
// what per-model constants.
type Resolved struct {
	Kind    Kind
	Address string // BLE address, or serial port path
	Name    string // advertised name, when known
	Model   string
	Profile Profile
}

// Advertisement is one device seen during a BLE scan.
type Advertisement struct {
	Address string
	Name    string
}

// Scanner performs a bounded BLE discovery scan. The radio-backed
// implementation lives in the transport package.
type Scanner interface {
	Scan(ctx context.Context, timeout time.Duration) ([]Advertisement, error)
}

// Resolver turns a TargetSpec into a Resolved device.
type Resolver struct {
	Registry    *Registry
	Scanner     Scanner
	ScanTimeout time.Duration

	// Strict makes an address target fail when the scan never sees it
	// advertise, instead of connecting blind with no inferred name.
	Strict bool
}

func (r *Resolver) scanTimeout() time.Duration {
	if r.ScanTimeout > 0 {
		return r.ScanTimeout
	}
	return 5 * time.Second
}

// Resolve discovers and validates the configured target.
//
// A BLE target without an address delimiter is a case-insensitive name
// prefix: the first advertisement whose name starts with it wins. A
// literal address skips matching but still scans once to learn the
// advertised name for model inference. Serial targets never scan and
// must carry an explicit model.
func (r *Resolver) Resolve(ctx context.Context, target TargetSpec) (Resolved, error) {
	if target.Kind == KindSerial {
		if target.Model == "" {
			return Resolved{}, ErrModelRequired
		}
		profile, ok := r.Registry.Lookup(target.Model)
		if !ok {
			return Resolved{}, fmt.Errorf("%w: %q", ErrUnknownModel, target.Model)
		}
		return Resolved{
			Kind:    KindSerial,
			Address: target.Target,
			Model:   target.Model,
			Profile: profile,
		}, nil
	}

	resolved, err := r.resolveBLE(ctx, target.Target)
	if err != nil {
		return Resolved{}, err
	}

	model := target.Model
	if model == "" {
		model, _ = r.Registry.InferModel(resolved.Name)
	}
	profile, ok := r.Registry.Lookup(model)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: advertised name %q matches no profile and no override given", ErrUnknownModel, resolved.Name)
	}
	resolved.Model = model
	resolved.Profile = profile
	return resolved, nil
}

func (r *Resolver) resolveBLE(ctx context.Context, target string) (Resolved, error) {
	devices, err := r.Scanner.Scan(ctx, r.scanTimeout())
	if err != nil {
		return Resolved{}, fmt.Errorf("discovery scan: %w", err)
	}

	if !strings.Contains(target, ":") {
		// Name prefix match.
		for _, d := range devices {
			if strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(target)) {
				return Resolved{Kind: KindBLE, Address: d.Address, Name: d.Name}, nil
			}
		}
		return Resolved{}, fmt.Errorf("%w: no advertisement matching %q", ErrDeviceNotFound, target)
	}

	// Literal address: the scan only supplies the advertised name.
	for _, d := range devices {
		if strings.EqualFold(d.Address, target) {
			return Resolved{Kind: KindBLE, Address: target, Name: d.Name}, nil
		}
	}
	if r.Strict {
		return Resolved{}, fmt.Errorf("%w: %s never advertised during the scan window", ErrDeviceNotFound, target)
	}
	return Resolved{Kind: KindBLE, Address: target}, nil
}
