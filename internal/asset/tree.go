// SPDX-License-Identifier: MPL-2.0

package asset

import (
	"iter"
	"path"
)

// Tree maps final paths to the asset that wins at that path. Iteration
// follows first insertion; Set on an existing path replaces the asset in
// place. The zero value is an empty tree ready for use.
type Tree struct {
	index   map[string]int
	entries []StaticAsset
}

// NewTree returns a tree holding assets, later entries winning.
func NewTree(assets ...StaticAsset) *Tree {
	t := &Tree{}
	for _, a := range assets {
		t.Set(a)
	}
	return t
}

// Set stores a at a.FinalPath, replacing any previous asset there.
func (t *Tree) Set(a StaticAsset) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[a.FinalPath]; ok {
		t.entries[i] = a
		return
	}
	t.index[a.FinalPath] = len(t.entries)
	t.entries = append(t.entries, a)
}

// Get returns the asset at finalPath.
func (t *Tree) Get(finalPath string) (StaticAsset, bool) {
	if t == nil {
		return StaticAsset{}, false
	}
	i, ok := t.index[path.Clean(finalPath)]
	if !ok {
		return StaticAsset{}, false
	}
	return t.entries[i], true
}

// Len returns the number of paths in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Paths returns the final paths in iteration order.
func (t *Tree) Paths() []string {
	if t == nil {
		return nil
	}
	paths := make([]string, len(t.entries))
	for i, a := range t.entries {
		paths[i] = a.FinalPath
	}
	return paths
}

// Assets returns a copy of the assets in iteration order.
func (t *Tree) Assets() []StaticAsset {
	if t == nil {
		return nil
	}
	assets := make([]StaticAsset, len(t.entries))
	copy(assets, t.entries)
	return assets
}

// All iterates over final paths and assets in iteration order.
func (t *Tree) All() iter.Seq2[string, StaticAsset] {
	return func(yield func(string, StaticAsset) bool) {
		if t == nil {
			return
		}
		for _, a := range t.entries {
			if !yield(a.FinalPath, a) {
				return
			}
		}
	}
}
