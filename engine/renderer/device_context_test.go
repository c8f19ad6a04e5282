package renderer

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })
	return &buf
}

func TestDeviceLostHandlerPanicsOnLoss(t *testing.T) {
	buf := captureLog(t)
	handler := deviceLostHandler("voxel device")

	assert.PanicsWithValue(t, `device "voxel device" lost (unknown): driver reset`, func() {
		handler(wgpu.DeviceLostReasonUnknown, "driver reset")
	})
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), `msg="device lost"`)
	assert.Contains(t, buf.String(), `message="driver reset"`)
}

func TestDeviceLostHandlerIgnoresRelease(t *testing.T) {
	buf := captureLog(t)
	handler := deviceLostHandler("voxel device")

	assert.NotPanics(t, func() {
		handler(wgpu.DeviceLostReasonDestroyed, "device destroyed")
	})
	assert.Contains(t, buf.String(), `msg="device released"`)
	assert.NotContains(t, buf.String(), "level=ERROR")
}
