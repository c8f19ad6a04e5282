package renderer

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestClampSize(t *testing.T) {
	w, h := clampSize(0, -5)
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)

	w, h = clampSize(1280, 720)
	assert.Equal(t, uint32(1280), w)
	assert.Equal(t, uint32(720), h)
}

func TestPresentModeMapping(t *testing.T) {
	assert.Equal(t, wgpu.PresentModeFifo, PresentModeVSync.toWGPU())
	assert.Equal(t, wgpu.PresentModeImmediate, PresentModeUncapped.toWGPU())
}

func TestAcquireWithRetrySucceedsFirstTry(t *testing.T) {
	tex := new(wgpu.Texture)
	reconfigured := 0

	got := acquireWithRetry(func() (*wgpu.Texture, error) { return tex, nil }, func() { reconfigured++ })
	assert.Same(t, tex, got)
	assert.Zero(t, reconfigured)
}

func TestAcquireWithRetryReconfiguresOnce(t *testing.T) {
	tex := new(wgpu.Texture)
	calls, reconfigured := 0, 0
	get := func() (*wgpu.Texture, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("outdated")
		}
		return tex, nil
	}

	got := acquireWithRetry(get, func() { reconfigured++ })
	assert.Same(t, tex, got)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, reconfigured)
}

func TestAcquireWithRetryPanicsOnSecondFailure(t *testing.T) {
	get := func() (*wgpu.Texture, error) { return nil, errors.New("lost") }
	assert.PanicsWithValue(t,
		"failed to acquire surface texture: lost (after reconfigure: lost)",
		func() { acquireWithRetry(get, func() {}) })
}

func TestPaddedBufferSize(t *testing.T) {
	assert.Equal(t, uint64(4), PaddedBufferSize(0))
	assert.Equal(t, uint64(4), PaddedBufferSize(3))
	assert.Equal(t, uint64(32), PaddedBufferSize(32))
	assert.Equal(t, uint64(36), PaddedBufferSize(33))
}
