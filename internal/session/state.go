package session

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oakwood-commons/rdx/internal/store"
)

// connectionState is the aggregate the reducer goroutine owns. Nothing
// outside the loop may touch it; consumers read Snapshot copies.
type connectionState struct {
	keys map[string]KeyType

	cursors   store.CursorSet // nil when no pagination is in progress
	scanning  bool
	completed bool
	round     int

	filter string
	mode   QueryMode

	loadedPrefixes map[string]struct{}

	selectedKey string
	value       *Value
	valueErr    string

	treeVersion string

	deleting bool
	updating bool

	lastActivity time.Time
}

func newConnectionState() connectionState {
	return connectionState{
		keys:           make(map[string]KeyType),
		loadedPrefixes: make(map[string]struct{}),
		treeVersion:    newTreeVersion(),
	}
}

// newTreeVersion mints an opaque invalidation token. V7 keeps tokens
// time-sortable, which helps when eyeballing logs.
func newTreeVersion() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (st *connectionState) bumpTreeVersion() {
	st.treeVersion = newTreeVersion()
}

// resetScan clears all discovery state ahead of a new filter submission.
func (st *connectionState) resetScan() {
	if len(st.keys) > 0 {
		st.bumpTreeVersion()
	}
	st.keys = make(map[string]KeyType)
	st.cursors = nil
	st.scanning = false
	st.completed = false
	st.round = 0
	st.loadedPrefixes = make(map[string]struct{})
}

// extendKeys merges newly discovered keys as Unknown, bumping the tree
// version only when the key set actually grew.
func (st *connectionState) extendKeys(keys []string) {
	added := false
	for _, k := range keys {
		if _, ok := st.keys[k]; !ok {
			st.keys[k] = Unknown
			added = true
		}
	}
	if added {
		st.bumpTreeVersion()
	}
}

// Snapshot is an immutable copy of the observable connection state.
type Snapshot struct {
	Name string

	Keys      map[string]KeyType
	Filter    string
	Mode      QueryMode
	Scanning  bool
	Completed bool
	Round     int

	SelectedKey string
	Value       *Value
	// ValueErr carries the last select-key failure (e.g. the unsupported
	// key type message); empty when the selection loaded cleanly.
	ValueErr string

	TreeVersion string

	Deleting bool
	Updating bool

	LastActivity time.Time
}

// KeyCount returns the number of discovered keys.
func (s *Snapshot) KeyCount() int {
	return len(s.Keys)
}

// SortedKeys returns the discovered keys in lexicographic order.
func (s *Snapshot) SortedKeys() []string {
	keys := make([]string, 0, len(s.Keys))
	for k := range s.Keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
