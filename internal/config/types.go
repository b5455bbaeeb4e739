// Package config loads and validates the rdx configuration file: the list of
// named store connections together with their scan tuning parameters.
package config

// DefaultSeparator is the namespace separator used when a connection does
// not configure one.
const DefaultSeparator = ":"

// ScanTuning holds the empirical knobs of the key discovery engine. The cap
// and round constants mirror observed behavior of large key spaces and are
// deliberately configurable rather than hard invariants.
type ScanTuning struct {
	// PageCap bounds cumulative results per scan round: a chain stops
	// continuing automatically once PageCap*(round+1) keys are merged.
	PageCap int `yaml:"page_cap"`
	// EmptyFilterPageSize is the COUNT hint for scans without a keyword.
	EmptyFilterPageSize int `yaml:"empty_filter_page_size"`
	// FilteredPageSize is the COUNT hint once a keyword narrows matches.
	FilteredPageSize int `yaml:"filtered_page_size"`
	// PrefixRounds caps the private page loop of a prefix expansion.
	PrefixRounds int `yaml:"prefix_rounds"`
	// ResolveConcurrency bounds in-flight type classification requests.
	ResolveConcurrency int `yaml:"resolve_concurrency"`
	// ListPageSize is the element count fetched per list value page.
	ListPageSize int `yaml:"list_page_size"`
	// AutoExpandBelow auto-expands all tree folders when fewer keys than
	// this have been discovered.
	AutoExpandBelow int `yaml:"auto_expand_below"`
}

// DefaultScanTuning returns the tuning applied when a connection leaves the
// scan section empty.
func DefaultScanTuning() ScanTuning {
	return ScanTuning{
		PageCap:             1000,
		EmptyFilterPageSize: 2000,
		FilteredPageSize:    10000,
		PrefixRounds:        20,
		ResolveConcurrency:  100,
		ListPageSize:        100,
		AutoExpandBelow:     20,
	}
}

// Connection describes one named store target.
type Connection struct {
	// Name is the unique identity of the connection.
	Name string `yaml:"name"`
	// URL is a redis URL, e.g. redis://localhost:6379/0.
	URL string `yaml:"url"`
	// Separator is the namespace separator token (default ":").
	Separator string `yaml:"separator"`
	// Scan overrides the default scan tuning for this connection.
	Scan ScanTuning `yaml:"scan"`
}

// Config is the root of the rdx configuration file.
type Config struct {
	Connections []Connection `yaml:"connections"`
}

// Connection returns the connection with the given name, if present.
func (c *Config) Connection(name string) (Connection, bool) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return Connection{}, false
}
