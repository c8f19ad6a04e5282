package common

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "a", Coalesce("", "a"))
	assert.Equal(t, float32(0), Coalesce[float32]())
}

func TestPerspectiveDepthRange(t *testing.T) {
	var m [16]float32
	Perspective(m[:], DegToRad(60), 1, 0.1, 100)

	depth := func(z float32) float32 {
		clipZ := m[10]*z + m[14]
		clipW := m[11]*z + m[15]
		return clipZ / clipW
	}
	assert.InDelta(t, 0, depth(-0.1), 1e-5)
	assert.InDelta(t, 1, depth(-100), 1e-5)
}

func TestOrthographicZOMapsBox(t *testing.T) {
	var m [16]float32
	OrthographicZO(m[:], -2, 2, -1, 3, 1, 5)

	apply := func(x, y, z float32) [3]float32 {
		return [3]float32{
			m[0]*x + m[4]*y + m[8]*z + m[12],
			m[1]*x + m[5]*y + m[9]*z + m[13],
			m[2]*x + m[6]*y + m[10]*z + m[14],
		}
	}
	lo := apply(-2, -1, -1)
	hi := apply(2, 3, -5)
	assert.InDeltaSlice(t, []float32{-1, -1, 0}, lo[:], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, hi[:], 1e-6)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
	assert.Len(t, SliceToBytes([]uint32{1, 2, 3}), 12)
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoggerDefaultsSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
