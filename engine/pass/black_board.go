package pass

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/texture"
)

// BlackBoard is a named texture registry through which passes share results. Each render
// device owns one and hands it to its passes.
type BlackBoard struct {
	mu       sync.RWMutex
	textures map[string]*texture.Texture
}

// NewBlackBoard creates an empty Black Board.
func NewBlackBoard() *BlackBoard {
	return &BlackBoard{textures: make(map[string]*texture.Texture)}
}

// Insert publishes a texture under name, replacing any previous entry.
func (b *BlackBoard) Insert(name string, tex *texture.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.textures == nil {
		b.textures = make(map[string]*texture.Texture)
	}
	b.textures[name] = tex
}

// Get returns the texture published under name. The boolean is false when nothing was published.
func (b *BlackBoard) Get(name string) (*texture.Texture, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	tex, ok := b.textures[name]
	return tex, ok
}

// Names returns the published names in sorted order.
func (b *BlackBoard) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.textures))
	for name := range b.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
