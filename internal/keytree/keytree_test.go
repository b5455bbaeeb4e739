package keytree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/rdx/internal/session"
)

func smallKeys() map[string]session.KeyType {
	return map[string]session.KeyType{
		"user:1:name": session.String,
		"user:1:tags": session.List,
		"user:2":      session.Hash,
		"jobs":        session.List,
		"cache:hot":   session.String,
	}
}

func TestBuildFoldsOnSeparator(t *testing.T) {
	nodes := Build(smallKeys(), Options{Separator: ":"})

	// five keys < auto-expand threshold, so everything is open
	require.Len(t, nodes, 3)
	require.Equal(t, "cache", nodes[0].Label)
	require.True(t, nodes[0].IsFolder)
	require.Equal(t, "user", nodes[1].Label)
	require.Equal(t, "jobs", nodes[2].Label)
	require.False(t, nodes[2].IsFolder)
	require.Equal(t, session.List, nodes[2].Type)

	user := nodes[1]
	require.Equal(t, "user", user.ID)
	require.Len(t, user.Children, 2)
	require.Equal(t, "1", user.Children[0].Label)
	require.True(t, user.Children[0].IsFolder)
	require.Equal(t, "user:1", user.Children[0].ID)
	require.Equal(t, "2", user.Children[1].Label)
	require.False(t, user.Children[1].IsFolder)
	require.Equal(t, "user:2", user.Children[1].ID)

	leafIDs := []string{user.Children[0].Children[0].ID, user.Children[0].Children[1].ID}
	require.Equal(t, []string{"user:1:name", "user:1:tags"}, leafIDs)
}

func TestBuildFoldersSortBeforeLeaves(t *testing.T) {
	keys := map[string]session.KeyType{
		"a":     session.String,
		"z:sub": session.String,
		"m":     session.String,
	}
	nodes := Build(keys, Options{})
	require.Equal(t, []string{"z", "a", "m"}, []string{nodes[0].Label, nodes[1].Label, nodes[2].Label})
	require.True(t, nodes[0].IsFolder)
}

func TestBuildIsDeterministic(t *testing.T) {
	first := Build(smallKeys(), Options{Separator: ":"})
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Build(smallKeys(), Options{Separator: ":"}))
	}
}

func TestCollapsedFoldersCarryNoChildren(t *testing.T) {
	keys := make(map[string]session.KeyType, 30)
	for _, k := range []string{
		"svc:a", "svc:b", "svc:c", "web:a", "web:b",
	} {
		keys[k] = session.String
	}
	// pad above the auto-expand threshold with top-level leaves
	for i := 0; i < 25; i++ {
		keys[string(rune('A'+i))] = session.String
	}

	nodes := Build(keys, Options{Expanded: map[string]struct{}{"svc": {}}})
	require.Equal(t, "svc", nodes[0].Label)
	require.Len(t, nodes[0].Children, 3)
	require.Equal(t, "web", nodes[1].Label)
	require.True(t, nodes[1].IsFolder)
	require.Nil(t, nodes[1].Children)
}

func TestAutoExpandBelowThreshold(t *testing.T) {
	keys := map[string]session.KeyType{"deep:nested:leaf": session.Zset}
	nodes := Build(keys, Options{})
	require.Len(t, nodes[0].Children, 1)
	require.Len(t, nodes[0].Children[0].Children, 1)
	leaf := nodes[0].Children[0].Children[0]
	require.Equal(t, "deep:nested:leaf", leaf.ID)
	require.Equal(t, 2, leaf.Depth)
}

func TestMaxDepthFoldsRemainderIntoLeaf(t *testing.T) {
	keys := map[string]session.KeyType{"a:b:c:d": session.String}
	nodes := Build(keys, Options{MaxDepth: 2})
	require.Equal(t, "a", nodes[0].Label)
	require.Len(t, nodes[0].Children, 1)
	leaf := nodes[0].Children[0]
	require.False(t, leaf.IsFolder)
	require.Equal(t, "b:c:d", leaf.Label)
	require.Equal(t, "a:b:c:d", leaf.ID)
}

func TestCustomSeparator(t *testing.T) {
	keys := map[string]session.KeyType{"a/b": session.String}
	nodes := Build(keys, Options{Separator: "/"})
	require.Equal(t, "a", nodes[0].Label)
	require.Equal(t, "b", nodes[0].Children[0].Label)
	require.Equal(t, "a/b", nodes[0].Children[0].ID)
}

func TestFlattenPreservesRenderOrder(t *testing.T) {
	nodes := Build(smallKeys(), Options{Separator: ":"})
	rows := Flatten(nodes)

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	require.Equal(t, []string{
		"cache", "cache:hot",
		"user", "user:1", "user:1:name", "user:1:tags", "user:2",
		"jobs",
	}, ids)
	for _, r := range rows {
		require.Nil(t, r.Children)
	}
}
