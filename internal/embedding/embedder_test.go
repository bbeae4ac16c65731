package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbed_IsDeterministic(t *testing.T) {
	e := New()
	a := e.Embed("hello world")
	b := e.Embed("hello world")
	assert.Equal(t, a, b)
}

func TestEmbed_ProducesConfiguredDimension(t *testing.T) {
	e := New()
	v := e.Embed("hello world")
	assert.Len(t, v, Dimension)
}

func TestEmbed_IsUnitNormalized(t *testing.T) {
	e := New()
	v := e.Embed("some request content")

	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)
}

func TestEmbed_DifferentTextProducesDifferentVector(t *testing.T) {
	e := New()
	a := e.Embed("hello world")
	b := e.Embed("goodbye universe")
	assert.NotEqual(t, a, b)
}

func TestEmbed_EmptyTextDoesNotPanic(t *testing.T) {
	e := New()
	assert.NotPanics(t, func() {
		e.Embed("")
	})
}
