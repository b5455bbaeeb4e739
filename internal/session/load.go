package session

import (
	"context"

	"github.com/oakwood-commons/rdx/internal/store"
	"github.com/oakwood-commons/rdx/pkg/logger"
)

// SelectKey makes the key the current selection and loads its value in the
// background. Selecting the already-selected key is a no-op; selecting ""
// clears the selection.
func (s *Session) SelectKey(key string) {
	s.enqueue(cmdSelectKey{key: key})
}

// LoadMoreListValue fetches the next page of elements for the selected
// list value. It is a no-op when everything is already loaded; callers
// paginating the view are responsible for gating concurrent calls with
// their own busy flag.
func (s *Session) LoadMoreListValue() {
	s.enqueue(cmdLoadMoreList{})
}

type cmdSelectKey struct {
	key string
}

func (c cmdSelectKey) apply(s *Session) {
	if s.st.selectedKey == c.key {
		return
	}
	s.st.selectedKey = c.key
	s.st.value = nil
	s.st.valueErr = ""
	if c.key == "" {
		return
	}
	s.touch()
	s.fetchValue(c.key)
}

// valueLoaded is the outcome of a select-key load.
type valueLoaded struct {
	key   string
	value *Value
	err   error
}

func (r valueLoaded) apply(s *Session) {
	if s.st.selectedKey != r.key {
		// selection moved on while the load was in flight
		return
	}
	if r.err != nil {
		valueLoadFailures.Inc()
		s.st.value = nil
		s.st.valueErr = r.err.Error()
		return
	}
	valueLoads.Inc()
	s.st.value = r.value
	s.st.valueErr = ""
}

// fetchValue loads the selected key's value: expiry probe first (a missing
// key short-circuits everything else), then type-dispatched loading.
func (s *Session) fetchValue(key string) {
	go func() {
		value, err := s.loadValue(s.ctx, key)
		s.enqueue(valueLoaded{key: key, value: value, err: err})
	}()
}

func (s *Session) loadValue(ctx context.Context, key string) (*Value, error) {
	handle, err := s.provider.GetConnection(ctx, s.name)
	if err != nil {
		return nil, err
	}

	ttl, err := handle.TTL(ctx, key)
	if err != nil {
		return nil, err
	}
	if ttl == store.TTLKeyMissing {
		missing := ExpiresMissing
		return &Value{ExpiresAt: &missing}, nil
	}
	expires := expiresAt(ttl, s.now())

	typeName, err := handle.Type(ctx, key)
	if err != nil {
		return nil, err
	}

	var value *Value
	switch ParseKeyType(typeName) {
	case String:
		raw, err := handle.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		value = newStringValue(raw)
	case List:
		value, err = s.loadListValue(ctx, handle, key)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnsupportedType
	}
	value.ExpiresAt = expires
	return value, nil
}

func (s *Session) loadListValue(ctx context.Context, handle store.Handle, key string) (*Value, error) {
	total, err := handle.LLen(ctx, key)
	if err != nil {
		return nil, err
	}
	pageSize := int64(s.tuning.ListPageSize)
	loaded, err := handle.LRange(ctx, key, 0, pageSize-1)
	if err != nil {
		return nil, err
	}
	return &Value{
		Type: List,
		Data: ListData{Total: int(total), Loaded: loaded},
		Size: int(total),
	}, nil
}

type cmdLoadMoreList struct{}

func (c cmdLoadMoreList) apply(s *Session) {
	key := s.st.selectedKey
	if key == "" {
		return
	}
	list, ok := s.st.value.ListValue()
	if !ok {
		return
	}
	start := len(list.Loaded)
	if start >= list.Total {
		return
	}
	s.fetchListPage(key, start)
}

// listAppended carries one additional page of list elements.
type listAppended struct {
	key   string
	start int
	items []string
	err   error
}

func (r listAppended) apply(s *Session) {
	if s.st.selectedKey != r.key {
		return
	}
	if r.err != nil {
		s.log.Error(r.err, "list page load failed", logger.ConnectionKey, s.name, logger.KeyKey, r.key)
		return
	}
	list, ok := s.st.value.ListValue()
	if !ok || len(list.Loaded) != r.start {
		// value changed underneath the in-flight page
		return
	}
	loaded := make([]string, 0, len(list.Loaded)+len(r.items))
	loaded = append(loaded, list.Loaded...)
	loaded = append(loaded, r.items...)
	next := *s.st.value
	next.Data = ListData{Total: list.Total, Loaded: loaded}
	s.st.value = &next
}

func (s *Session) fetchListPage(key string, start int) {
	pageSize := int64(s.tuning.ListPageSize)
	go func() {
		handle, err := s.provider.GetConnection(s.ctx, s.name)
		if err != nil {
			s.enqueue(listAppended{key: key, start: start, err: err})
			return
		}
		items, err := handle.LRange(s.ctx, key, int64(start), int64(start)+pageSize-1)
		s.enqueue(listAppended{key: key, start: start, items: items, err: err})
	}()
}
