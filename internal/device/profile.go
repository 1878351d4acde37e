package device

import (
	"strings"
	"time"
)

// Link kinds a profile can be driven over.
type Kind int

const (
	KindBLE Kind = iota
	KindSerial
)

func (k Kind) String() string {
	if k == KindSerial {
		return "serial"
	}
	return "ble"
}

// Profile holds the per-model constants needed to drive a printer:
// paper width in dots, the largest chunk the link accepts per write,
// and the pause between writes. Zero values mean "unset, use defaults".
type Profile struct {
	WidthDots     int
	ImageMTU      int
	WriteInterval time.Duration
}

const (
	defaultBLEMTU        = 20
	defaultSerialMTU     = 180
	defaultWriteInterval = 4 * time.Millisecond
)

// MTUFor returns the write chunk size for the given link kind.
func (p Profile) MTUFor(kind Kind) int {
	if p.ImageMTU > 0 {
		return p.ImageMTU
	}
	if kind == KindSerial {
		return defaultSerialMTU
	}
	return defaultBLEMTU
}

// Interval returns the pause between consecutive link writes.
func (p Profile) Interval() time.Duration {
	if p.WriteInterval > 0 {
		return p.WriteInterval
	}
	return defaultWriteInterval
}

// NormalizedWidth rounds the paper width down to a whole byte of dots.
func (p Profile) NormalizedWidth() int {
	return p.WidthDots &^ 7
}

// Registry maps model names to profiles and advertised names to models.
type Registry struct {
	models map[string]Profile
}

// NewRegistry returns the built-in TiMini family table.
func NewRegistry() *Registry {
	return &Registry{
		models: map[string]Profile{
			"X3":  {WidthDots: 240},
			"X5":  {WidthDots: 384},
			"X6":  {WidthDots: 384, ImageMTU: 180},
			"X6h": {WidthDots: 576, ImageMTU: 180},
		},
	}
}

// Lookup returns the profile for a model name (case-insensitive).
func (r *Registry) Lookup(model string) (Profile, bool) {
	for name, p := range r.models {
		if strings.EqualFold(name, model) {
			return p, true
		}
	}
	return Profile{}, false
}

// InferModel maps an advertised BLE name to a known model. Printers
// advertise names like "TiMini-X6_3A2F", so any known model appearing
// as a token of the name counts.
func (r *Registry) InferModel(advertised string) (string, bool) {
	if advertised == "" {
		return "", false
	}
	tokens := strings.FieldsFunc(strings.ToLower(advertised), func(c rune) bool {
		return c == '-' || c == '_' || c == ' '
	})
	for name := range r.models {
		for _, tok := range tokens {
			if tok == strings.ToLower(name) {
				return name, true
			}
		}
	}
	return "", false
}
