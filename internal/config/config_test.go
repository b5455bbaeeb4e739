package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.Connections)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `connections:
  - name: local
    url: redis://localhost:6379/0
  - name: staging
    url: redis://staging:6379/2
    separator: "/"
    scan:
      page_cap: 500
      prefix_rounds: 5
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Connections, 2)

	local, ok := cfg.Connection("local")
	require.True(t, ok)
	require.Equal(t, DefaultSeparator, local.Separator)
	require.Equal(t, DefaultScanTuning(), local.Scan)

	staging, ok := cfg.Connection("staging")
	require.True(t, ok)
	require.Equal(t, "/", staging.Separator)
	require.Equal(t, 500, staging.Scan.PageCap)
	require.Equal(t, 5, staging.Scan.PrefixRounds)
	// untouched fields fall back to defaults
	require.Equal(t, 2000, staging.Scan.EmptyFilterPageSize)
	require.Equal(t, 100, staging.Scan.ResolveConcurrency)
}

func TestLoadRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "connections:\n  - url: redis://x:6379\n",
			want: "name is required",
		},
		{
			name: "missing url",
			yaml: "connections:\n  - name: a\n",
			want: "url is required",
		},
		{
			name: "duplicate name",
			yaml: "connections:\n  - name: a\n    url: redis://x:6379\n  - name: a\n    url: redis://y:6379\n",
			want: "duplicate name",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o600))
			_, err := Load(path)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestConnectionLookup(t *testing.T) {
	cfg := Config{Connections: []Connection{{Name: "a", URL: "redis://x"}}}
	_, ok := cfg.Connection("a")
	require.True(t, ok)
	_, ok = cfg.Connection("b")
	require.False(t, ok)
}
