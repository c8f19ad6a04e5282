package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadStaticMeshes reads an OBJ file and the material library it names. Every object is split
// into one mesh per material it uses, and polygons are fan-triangulated.
//
// Materials missing any of Ka, Kd, Ks or Ns fail the load. A mesh without a material, or whose
// material the library does not define, gets MaterialID NoMaterial.
//
// Parameters:
//   - path: the OBJ file path
//
// Returns:
//   - []StaticMesh: the meshes in object order
//   - []Material: the materials in library order
//   - error: an error if the files cannot be read or a material is incomplete
func LoadStaticMeshes(path string) ([]StaticMesh, []Material, error) {
	mtlPath, err := findMtllib(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	var keys mtlKeys
	var mtlData []byte
	if mtlPath != "" {
		data, readErr := os.ReadFile(mtlPath)
		switch {
		case errors.Is(readErr, fs.ErrNotExist):
			common.Logger().Warn("material library not found, using default material", "path", mtlPath)
		case readErr != nil:
			return nil, nil, fmt.Errorf("failed to read material library %q: %w", mtlPath, readErr)
		default:
			keys, err = scanMtlKeys(bytes.NewReader(data))
			if err != nil {
				return nil, nil, err
			}
			if err := keys.validate(); err != nil {
				return nil, nil, err
			}
			mtlData = data
		}
	}

	objFile, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer objFile.Close()

	dec, err := obj.DecodeReader(objFile, bytes.NewReader(mtlData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %q: %w", path, err)
	}

	materials := make([]Material, 0, len(keys.names))
	materialIDs := make(map[string]int, len(keys.names))
	for _, name := range keys.names {
		m, ok := dec.Materials[name]
		if !ok {
			continue
		}
		materialIDs[name] = len(materials)
		materials = append(materials, Material{
			Name:      name,
			Ambient:   mgl32.Vec3{m.Ambient.R, m.Ambient.G, m.Ambient.B},
			Diffuse:   mgl32.Vec3{m.Diffuse.R, m.Diffuse.G, m.Diffuse.B},
			Specular:  mgl32.Vec3{m.Specular.R, m.Specular.G, m.Specular.B},
			Shininess: m.Shininess,
		})
	}

	src := objSource{positions: dec.Vertices, normals: dec.Normals, uvs: dec.Uvs}
	warned := make(map[string]bool)
	var meshes []StaticMesh
	for _, o := range dec.Objects {
		groups, order := groupFacesByMaterial(o.Faces)
		for _, matName := range order {
			name := o.Name
			if len(order) > 1 {
				name = o.Name + "/" + matName
			}
			mesh, err := src.buildMesh(name, groups[matName])
			if err != nil {
				return nil, nil, fmt.Errorf("failed to build %q from %q: %w", name, path, err)
			}

			mesh.MaterialID = NoMaterial
			if id, ok := materialIDs[matName]; ok {
				mesh.MaterialID = id
			} else if matName != "" && !warned[matName] {
				warned[matName] = true
				common.Logger().Warn("material not defined, using default material", "mesh", name, "material", matName)
			}
			meshes = append(meshes, mesh)
		}
	}

	common.Logger().Info("loaded obj", "path", path, "meshes", len(meshes), "materials", len(materials))
	return meshes, materials, nil
}

// groupFacesByMaterial splits faces by material name, keeping first-use order.
func groupFacesByMaterial(faces []obj.Face) (map[string][]obj.Face, []string) {
	groups := make(map[string][]obj.Face)
	var order []string
	for _, f := range faces {
		if _, ok := groups[f.Material]; !ok {
			order = append(order, f.Material)
		}
		groups[f.Material] = append(groups[f.Material], f)
	}
	return groups, order
}

// objSource holds the flat attribute arrays of a decoded OBJ file.
type objSource struct {
	positions []float32
	normals   []float32
	uvs       []float32
}

type cornerKey struct {
	v, t, n int
}

// buildMesh de-duplicates face corners by their (position, uv, normal) index triple. Corners
// without a normal get the area-weighted average of their faces' normals.
func (s objSource) buildMesh(name string, faces []obj.Face) (StaticMesh, error) {
	mesh := StaticMesh{Name: name}
	lookup := make(map[cornerKey]uint32)
	var needsNormal []bool

	corner := func(f obj.Face, i int) (uint32, error) {
		key := cornerKey{v: f.Vertices[i], t: -1, n: -1}
		if key.v < 0 || 3*key.v+2 >= len(s.positions) {
			return 0, fmt.Errorf("vertex index %d out of range", key.v)
		}
		if i < len(f.Uvs) && f.Uvs[i] >= 0 && 2*f.Uvs[i]+1 < len(s.uvs) {
			key.t = f.Uvs[i]
		}
		if i < len(f.Normals) && f.Normals[i] >= 0 && 3*f.Normals[i]+2 < len(s.normals) {
			key.n = f.Normals[i]
		}
		if idx, ok := lookup[key]; ok {
			return idx, nil
		}

		idx := uint32(len(mesh.Positions))
		lookup[key] = idx
		mesh.Positions = append(mesh.Positions, mgl32.Vec3{s.positions[3*key.v], s.positions[3*key.v+1], s.positions[3*key.v+2]})
		uv := mgl32.Vec2{}
		if key.t >= 0 {
			uv = mgl32.Vec2{s.uvs[2*key.t], s.uvs[2*key.t+1]}
		}
		mesh.TexCoords = append(mesh.TexCoords, uv)
		n := mgl32.Vec3{}
		if key.n >= 0 {
			n = mgl32.Vec3{s.normals[3*key.n], s.normals[3*key.n+1], s.normals[3*key.n+2]}
		}
		mesh.Normals = append(mesh.Normals, n)
		needsNormal = append(needsNormal, key.n < 0)
		return idx, nil
	}

	for _, f := range faces {
		if len(f.Vertices) < 3 {
			continue
		}
		first, err := corner(f, 0)
		if err != nil {
			return StaticMesh{}, err
		}
		for i := 1; i+1 < len(f.Vertices); i++ {
			b, err := corner(f, i)
			if err != nil {
				return StaticMesh{}, err
			}
			c, err := corner(f, i+1)
			if err != nil {
				return StaticMesh{}, err
			}
			mesh.Indices = append(mesh.Indices, first, b, c)
		}
	}

	fillMissingNormals(&mesh, needsNormal)
	return mesh, nil
}

func fillMissingNormals(mesh *StaticMesh, needsNormal []bool) {
	missing := false
	for _, n := range needsNormal {
		missing = missing || n
	}
	if !missing {
		return
	}
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		a, b, c := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		fn := mesh.Positions[b].Sub(mesh.Positions[a]).Cross(mesh.Positions[c].Sub(mesh.Positions[a]))
		for _, i := range [3]uint32{a, b, c} {
			if needsNormal[i] {
				mesh.Normals[i] = mesh.Normals[i].Add(fn)
			}
		}
	}
	for i, need := range needsNormal {
		if need && mesh.Normals[i].Len() > 0 {
			mesh.Normals[i] = mesh.Normals[i].Normalize()
		}
	}
}
