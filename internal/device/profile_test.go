package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileDefaults(t *testing.T) {
	var p Profile
	assert.Equal(t, 20, p.MTUFor(KindBLE))
	assert.Equal(t, 180, p.MTUFor(KindSerial))
	assert.Equal(t, 4*time.Millisecond, p.Interval())

	p = Profile{ImageMTU: 96, WriteInterval: 10 * time.Millisecond}
	assert.Equal(t, 96, p.MTUFor(KindBLE))
	assert.Equal(t, 96, p.MTUFor(KindSerial))
	assert.Equal(t, 10*time.Millisecond, p.Interval())
}

func TestNormalizedWidth(t *testing.T) {
	assert.Equal(t, 384, Profile{WidthDots: 384}.NormalizedWidth())
	assert.Equal(t, 384, Profile{WidthDots: 387}.NormalizedWidth())
	assert.Equal(t, 0, Profile{WidthDots: 7}.NormalizedWidth())
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	p, ok := r.Lookup("X6")
	assert.True(t, ok)
	assert.Equal(t, 384, p.WidthDots)

	_, ok = r.Lookup("x6")
	assert.True(t, ok, "lookup is case-insensitive")

	_, ok = r.Lookup("Z99")
	assert.False(t, ok)
}

func TestRegistryInferModel(t *testing.T) {
	r := NewRegistry()

	model, ok := r.InferModel("TiMini-X6_3A2F")
	assert.True(t, ok)
	assert.Equal(t, "X6", model)

	model, ok = r.InferModel("timini x5")
	assert.True(t, ok)
	assert.Equal(t, "X5", model)

	_, ok = r.InferModel("SomeHeadphones")
	assert.False(t, ok)

	_, ok = r.InferModel("")
	assert.False(t, ok)
}
