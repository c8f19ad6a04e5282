package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves primitives, known structs and arrays. A runtime-sized
// array resolves to its element stride so callers can multiply by a record count.
func resolveTypeLayout(typeName string, known map[string]TypeLayout) (TypeLayout, bool) {
	if l, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return TypeLayout{}, false
	}

	inner := typeName[len("array<") : len(typeName)-1]
	elem, count, fixed := strings.Cut(inner, ",")
	elemLayout, ok := resolveTypeLayout(strings.TrimSpace(elem), known)
	if !ok {
		return TypeLayout{}, false
	}
	stride := roundUpAlign(elemLayout.Align, elemLayout.Size)
	if !fixed {
		return TypeLayout{Size: stride, Align: elemLayout.Align}, true
	}
	n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
	if err != nil {
		return TypeLayout{}, false
	}
	return TypeLayout{Size: n * stride, Align: elemLayout.Align}, true
}

func isRuntimeArray(typeName string) bool {
	return strings.HasPrefix(typeName, "array<") && !strings.Contains(typeName, ",")
}

// computeStructLayout lays fields out at their aligned offsets and rounds the total up to
// the largest member alignment. A trailing runtime-sized array contributes nothing to the size.
// Builtin members are not host-shareable and are skipped.
func computeStructLayout(ps parsedStruct, known map[string]TypeLayout) (TypeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)

	for i, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		fl, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			return TypeLayout{}, false
		}
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		if isRuntimeArray(f.typeName) && i == len(ps.fields)-1 {
			break
		}
		offset = roundUpAlign(fl.Align, offset) + fl.Size
	}

	return TypeLayout{Size: roundUpAlign(maxAlign, offset), Align: maxAlign}, true
}

// computeStructSizes resolves every struct, repeating until structs that embed other
// structs have all resolved or no further progress is possible.
func computeStructSizes(structs []parsedStruct) map[string]TypeLayout {
	resolved := make(map[string]TypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)

	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			if l, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = l
			} else {
				next = append(next, ps)
			}
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}

// classifyResource builds a layout entry from an address space (buffers) or a handle type
// (samplers and textures).
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage") && strings.Contains(addressSpace, "read_write"):
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		case strings.HasPrefix(addressSpace, "storage"):
			entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
		return entry
	}

	base, params := splitTypeParams(typeName)
	switch {
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_storage_"):
		entry.StorageTexture.ViewDimension = wgslStorageTextureDimMap[base]
		format, access, _ := strings.Cut(params, ",")
		if f, ok := wgslTexelFormatMap[strings.TrimSpace(format)]; ok {
			entry.StorageTexture.Format = f
		}
		if a, ok := wgslStorageAccessMap[strings.TrimSpace(access)]; ok {
			entry.StorageTexture.Access = a
		}
	case strings.HasPrefix(base, "texture_"):
		if info, ok := wgslSampledTextureMap[base]; ok {
			entry.Texture.ViewDimension = info.viewDimension
			entry.Texture.Multisampled = info.multisampled
		}
		if strings.HasPrefix(base, "texture_depth_") {
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		} else if st, ok := wgslSampleTypeMap[params]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// splitTypeParams splits "texture_2d<f32>" into ("texture_2d", "f32").
func splitTypeParams(typeName string) (base, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}
