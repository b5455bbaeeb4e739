// Package session implements the per-connection browsing core: incremental
// key discovery over cursor-based iteration, type classification, value
// loading with pagination, and mutations. All state for one connection is
// owned by a single reducer goroutine; background store requests deliver
// typed results into it and are applied serially, so consumers only ever
// observe consistent snapshots.
package session

// KeyType classifies a discovered key. The set is closed; names reported by
// the store that are not recognized map to Unknown.
type KeyType int

const (
	Unknown KeyType = iota
	String
	List
	Set
	Zset
	Hash
	Stream
	Vectorset
)

// ParseKeyType converts the store's lowercase type name. The mapping is
// total: unrecognized or empty names yield Unknown, never an error.
func ParseKeyType(name string) KeyType {
	switch name {
	case "string":
		return String
	case "list":
		return List
	case "set":
		return Set
	case "zset":
		return Zset
	case "hash":
		return Hash
	case "stream":
		return Stream
	case "vectorset":
		return Vectorset
	default:
		return Unknown
	}
}

// Label returns the fixed short display label for the type.
func (t KeyType) Label() string {
	switch t {
	case String:
		return "STR"
	case List:
		return "LIST"
	case Hash:
		return "HASH"
	case Set:
		return "SET"
	case Zset:
		return "ZSET"
	case Stream:
		return "STRM"
	case Vectorset:
		return "VEC"
	default:
		return ""
	}
}

// Color returns the fixed display color for the type as a hex string.
// Rendering layers decide how to apply it.
func (t KeyType) Color() string {
	switch t {
	case String:
		return "#3B82CF"
	case List:
		return "#9C5FCE"
	case Hash:
		return "#D98236"
	case Set:
		return "#3FBFBF"
	case Zset:
		return "#D94F4F"
	case Stream:
		return "#3FA659"
	case Vectorset:
		return "#D95FB8"
	default:
		return "#666666"
	}
}

// QueryMode selects how the search keyword maps to a match pattern.
type QueryMode int

const (
	// ModeAll matches the keyword anywhere in the key.
	ModeAll QueryMode = iota
	// ModePrefix anchors the keyword at the start of the key.
	ModePrefix
	// ModeExact matches the keyword as a whole key.
	ModeExact
)

// ParseQueryMode reads the compact mode token used in config and on the
// command line: "^" for prefix, "=" for exact, anything else for all.
func ParseQueryMode(s string) QueryMode {
	switch s {
	case "^":
		return ModePrefix
	case "=":
		return ModeExact
	default:
		return ModeAll
	}
}

// String returns the compact mode token.
func (m QueryMode) String() string {
	switch m {
	case ModePrefix:
		return "^"
	case ModeExact:
		return "="
	default:
		return "*"
	}
}

// Pattern builds the store match pattern for a keyword under this mode.
func (m QueryMode) Pattern(keyword string) string {
	if keyword == "" {
		return "*"
	}
	switch m {
	case ModePrefix:
		return keyword + "*"
	case ModeExact:
		return keyword
	default:
		return "*" + keyword + "*"
	}
}
