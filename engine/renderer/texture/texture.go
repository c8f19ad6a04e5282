// Package texture wraps a GPU texture together with the views created from it.
package texture

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Texture is one GPU texture plus an indexed list of views. View 0 is created with the texture.
// Passes share textures by pointer, so pointer identity tells a consumer when to rebuild its
// bind groups.
type Texture struct {
	label      string
	texture    *wgpu.Texture
	descriptor wgpu.TextureDescriptor
	views      []*wgpu.TextureView
}

// NewTexture creates a texture and its default view.
//
// Parameters:
//   - device: the device to create the texture on
//   - desc: the texture descriptor
//
// Returns:
//   - *Texture: the created texture
//   - error: an error if the texture or its default view cannot be created
func NewTexture(device *wgpu.Device, desc wgpu.TextureDescriptor) (*Texture, error) {
	tex, err := device.CreateTexture(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	t := &Texture{
		label:      desc.Label,
		texture:    tex,
		descriptor: desc,
	}
	if _, err := t.CreateView(nil); err != nil {
		tex.Release()
		return nil, err
	}
	return t, nil
}

// CreateView adds a view and returns its index.
//
// Parameters:
//   - desc: the view descriptor, or nil for a view of the whole texture
//
// Returns:
//   - int: the index of the new view
//   - error: an error if the view cannot be created
func (t *Texture) CreateView(desc *wgpu.TextureViewDescriptor) (int, error) {
	view, err := t.texture.CreateView(desc)
	if err != nil {
		return -1, fmt.Errorf("failed to create view %d of texture %q: %w", len(t.views), t.label, err)
	}
	t.views = append(t.views, view)
	return len(t.views) - 1, nil
}

// View returns the view at index i, or nil when out of range.
func (t *Texture) View(i int) *wgpu.TextureView {
	if i < 0 || i >= len(t.views) {
		return nil
	}
	return t.views[i]
}

// ViewCount returns the number of views created so far.
func (t *Texture) ViewCount() int {
	return len(t.views)
}

// Label returns the debug label.
func (t *Texture) Label() string {
	return t.label
}

// Texture returns the underlying GPU texture.
func (t *Texture) Texture() *wgpu.Texture {
	return t.texture
}

// Size returns the texture extent.
func (t *Texture) Size() wgpu.Extent3D {
	return t.descriptor.Size
}

// Format returns the texel format.
func (t *Texture) Format() wgpu.TextureFormat {
	return t.descriptor.Format
}

// Release frees every view and then the texture.
func (t *Texture) Release() {
	for _, v := range t.views {
		v.Release()
	}
	t.views = nil
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
