// Package keytree folds a flat key set into a hierarchical namespace
// view. Build is a pure function over a snapshot; it performs no I/O and
// holds no state, so callers cache its output keyed by the snapshot's
// tree version.
package keytree

import (
	"sort"
	"strings"

	"github.com/oakwood-commons/rdx/internal/session"
)

// DefaultAutoExpandBelow is the key-count threshold under which every
// folder renders expanded without an explicit request.
const DefaultAutoExpandBelow = 20

// Node is one rendered tree entry. Folder ids are the joined path prefix
// (no trailing separator); leaf ids are the full key.
type Node struct {
	ID       string
	Label    string
	Type     session.KeyType
	IsFolder bool
	Depth    int
	Children []Node
}

// Options controls the fold.
type Options struct {
	// Separator splits keys into path components. Empty means ":".
	Separator string
	// MaxDepth caps nesting; components beyond it stay joined in the
	// final leaf label. 0 means unlimited.
	MaxDepth int
	// Expanded holds folder ids whose children should render. Collapsed
	// folders emit no children, which keeps huge namespaces cheap.
	Expanded map[string]struct{}
	// AutoExpandBelow expands everything when fewer keys were
	// discovered. 0 means DefaultAutoExpandBelow.
	AutoExpandBelow int
}

// Build produces the tree for the given key/type pairs. Output is
// deterministic: within each level folders sort before leaves, each
// group lexicographically.
func Build(keys map[string]session.KeyType, opts Options) []Node {
	if opts.Separator == "" {
		opts.Separator = ":"
	}
	if opts.AutoExpandBelow == 0 {
		opts.AutoExpandBelow = DefaultAutoExpandBelow
	}
	b := &builder{
		sep:       opts.Separator,
		expanded:  opts.Expanded,
		expandAll: len(keys) < opts.AutoExpandBelow,
	}
	root := newScratch()
	for key, kt := range keys {
		root.insert(splitPath(key, opts.Separator, opts.MaxDepth), key, kt)
	}
	return b.emit(root, "", 0)
}

// splitPath breaks a key into at most maxDepth components; the remainder
// stays joined in the last one.
func splitPath(key, sep string, maxDepth int) []string {
	if maxDepth > 0 {
		return strings.SplitN(key, sep, maxDepth)
	}
	return strings.Split(key, sep)
}

type leaf struct {
	key string
	typ session.KeyType
}

type scratch struct {
	folders map[string]*scratch
	leaves  map[string]leaf
}

func newScratch() *scratch {
	return &scratch{
		folders: make(map[string]*scratch),
		leaves:  make(map[string]leaf),
	}
}

func (s *scratch) insert(parts []string, key string, kt session.KeyType) {
	if len(parts) == 1 {
		s.leaves[parts[0]] = leaf{key: key, typ: kt}
		return
	}
	child, ok := s.folders[parts[0]]
	if !ok {
		child = newScratch()
		s.folders[parts[0]] = child
	}
	child.insert(parts[1:], key, kt)
}

type builder struct {
	sep       string
	expanded  map[string]struct{}
	expandAll bool
}

func (b *builder) emit(s *scratch, prefix string, depth int) []Node {
	nodes := make([]Node, 0, len(s.folders)+len(s.leaves))

	folderNames := make([]string, 0, len(s.folders))
	for name := range s.folders {
		folderNames = append(folderNames, name)
	}
	sort.Strings(folderNames)
	for _, name := range folderNames {
		id := name
		if prefix != "" {
			id = prefix + b.sep + name
		}
		n := Node{ID: id, Label: name, IsFolder: true, Depth: depth}
		if b.isExpanded(id) {
			n.Children = b.emit(s.folders[name], id, depth+1)
		}
		nodes = append(nodes, n)
	}

	leafLabels := make([]string, 0, len(s.leaves))
	for label := range s.leaves {
		leafLabels = append(leafLabels, label)
	}
	sort.Strings(leafLabels)
	for _, label := range leafLabels {
		l := s.leaves[label]
		nodes = append(nodes, Node{
			ID:    l.key,
			Label: label,
			Type:  l.typ,
			Depth: depth,
		})
	}
	return nodes
}

func (b *builder) isExpanded(id string) bool {
	if b.expandAll {
		return true
	}
	_, ok := b.expanded[id]
	return ok
}

// Flatten returns the visible rows of a tree in render order. Collapsed
// folders contribute a single row; leaves keep their depth so callers
// can indent.
func Flatten(nodes []Node) []Node {
	var rows []Node
	for _, n := range nodes {
		children := n.Children
		n.Children = nil
		rows = append(rows, n)
		rows = append(rows, Flatten(children)...)
	}
	return rows
}
