package shader

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch is wrapped by every ValidateLayout failure.
var ErrLayoutMismatch = errors.New("bind group layout mismatch")

// ValidateLayout checks a host-declared bind group layout against the layout reflected from a
// shader for the same group. Every binding must exist on both sides with the same resource kind,
// buffer type, storage texture format, access and dimension. Buffer MinBindingSize must match
// exactly whenever the shader's size is known. Visibility is not compared, since one host layout
// may serve several modules.
//
// Parameters:
//   - host: the layout the host will create
//   - s: the shader whose reflected layout is the reference
//   - group: the @group index to compare
//
// Returns:
//   - error: an error wrapping ErrLayoutMismatch that names every offending binding, or nil
func ValidateLayout(host wgpu.BindGroupLayoutDescriptor, s Shader, group int) error {
	reflected := s.BindGroupLayoutDescriptor(group)

	hostByBinding := make(map[uint32]wgpu.BindGroupLayoutEntry, len(host.Entries))
	for _, e := range host.Entries {
		hostByBinding[e.Binding] = e
	}
	shaderByBinding := make(map[uint32]wgpu.BindGroupLayoutEntry, len(reflected.Entries))
	for _, e := range reflected.Entries {
		shaderByBinding[e.Binding] = e
	}

	var problems []string
	for binding, want := range shaderByBinding {
		got, ok := hostByBinding[binding]
		if !ok {
			problems = append(problems, fmt.Sprintf("binding %d (%s) missing from host layout", binding, s.BindGroupVarName(group, int(binding))))
			continue
		}
		if msg := compareEntry(got, want); msg != "" {
			problems = append(problems, fmt.Sprintf("binding %d (%s): %s", binding, s.BindGroupVarName(group, int(binding)), msg))
		}
	}
	for binding := range hostByBinding {
		if _, ok := shaderByBinding[binding]; !ok {
			problems = append(problems, fmt.Sprintf("binding %d not declared by shader", binding))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("%w: shader %s group %d: %s", ErrLayoutMismatch, s.Key(), group, strings.Join(problems, "; "))
}

func compareEntry(host, want wgpu.BindGroupLayoutEntry) string {
	switch {
	case want.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		if host.Buffer.Type != want.Buffer.Type {
			return fmt.Sprintf("buffer type %v, shader wants %v", host.Buffer.Type, want.Buffer.Type)
		}
		if want.Buffer.MinBindingSize != 0 && host.Buffer.MinBindingSize != want.Buffer.MinBindingSize {
			return fmt.Sprintf("min binding size %d, shader wants %d", host.Buffer.MinBindingSize, want.Buffer.MinBindingSize)
		}
	case want.StorageTexture.Access != wgpu.StorageTextureAccessUndefined:
		if host.StorageTexture.Access != want.StorageTexture.Access ||
			host.StorageTexture.Format != want.StorageTexture.Format ||
			host.StorageTexture.ViewDimension != want.StorageTexture.ViewDimension {
			return fmt.Sprintf("storage texture %v/%v/%v, shader wants %v/%v/%v",
				host.StorageTexture.Format, host.StorageTexture.Access, host.StorageTexture.ViewDimension,
				want.StorageTexture.Format, want.StorageTexture.Access, want.StorageTexture.ViewDimension)
		}
	case want.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		if host.Texture.SampleType != want.Texture.SampleType || host.Texture.ViewDimension != want.Texture.ViewDimension {
			return fmt.Sprintf("texture %v/%v, shader wants %v/%v",
				host.Texture.SampleType, host.Texture.ViewDimension, want.Texture.SampleType, want.Texture.ViewDimension)
		}
	case want.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		if host.Sampler.Type == wgpu.SamplerBindingTypeUndefined {
			return "host binding is not a sampler"
		}
	}
	return ""
}
