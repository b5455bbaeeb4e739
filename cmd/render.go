package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"
	"golang.org/x/term"

	"github.com/oakwood-commons/rdx/internal/keytree"
	"github.com/oakwood-commons/rdx/internal/session"
)

// terminalWidth returns the stdout column count, or 0 when stdout is not a
// terminal (no truncation then).
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// renderKeyList prints one key per line, type label first.
func renderKeyList(keys map[string]session.KeyType, width int) string {
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, key := range sorted {
		line := fmt.Sprintf("%-5s %s", keys[key].Label(), key)
		b.WriteString(truncateLine(line, width))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderKeyTree prints the namespace tree of the given keys, fully
// expanded.
func renderKeyTree(keys map[string]session.KeyType, sep string, width int) string {
	nodes := keytree.Build(keys, keytree.Options{
		Separator: sep,
		// one-shot output always expands everything
		AutoExpandBelow: len(keys) + 1,
	})
	root := treeprint.New()
	addTreeNodes(root, nodes, width)
	return root.String()
}

func addTreeNodes(branch treeprint.Tree, nodes []keytree.Node, width int) {
	for _, n := range nodes {
		if n.IsFolder {
			child := branch.AddBranch(truncateLine(n.Label, width))
			addTreeNodes(child, n.Children, width)
			continue
		}
		label := n.Label
		if n.Type != session.Unknown {
			label += " [" + n.Type.Label() + "]"
		}
		branch.AddNode(truncateLine(label, width))
	}
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
