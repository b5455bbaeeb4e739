package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/rdx/internal/store"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func selectReady(sn *Snapshot) bool { return sn.Value != nil || sn.ValueErr != "" }

func TestSelectMissingKeyShortCircuits(t *testing.T) {
	h := &fakeHandle{
		ttlFn: func(string) (int64, error) { return store.TTLKeyMissing, nil },
	}
	s := newTestSession(t, h)
	s.now = func() time.Time { return fixedNow }

	s.SelectKey("ghost")
	snap := waitFor(t, s, selectReady, "missing value")
	require.True(t, snap.Value.IsMissing())
	require.Nil(t, snap.Value.Data)

	// no type or value fetch was attempted
	_, _, typeCalls, _ := h.counts()
	require.Equal(t, 0, typeCalls)
}

func TestSelectStringValueTTLVariants(t *testing.T) {
	cases := []struct {
		name    string
		ttl     int64
		wantExp int64
	}{
		{name: "persistent", ttl: store.TTLPersistent, wantExp: ExpiresNever},
		{name: "expiring", ttl: 5, wantExp: fixedNow.Unix() + 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &fakeHandle{
				ttlFn:  func(string) (int64, error) { return tc.ttl, nil },
				typeFn: stringTyper,
				getFn:  func(string) ([]byte, error) { return []byte("hello"), nil },
			}
			s := newTestSession(t, h)
			s.now = func() time.Time { return fixedNow }

			s.SelectKey("greeting")
			snap := waitFor(t, s, selectReady, "value load")
			require.NotNil(t, snap.Value.ExpiresAt)
			require.Equal(t, tc.wantExp, *snap.Value.ExpiresAt)
			text, ok := snap.Value.StringValue()
			require.True(t, ok)
			require.Equal(t, "hello", text)
			require.Equal(t, 5, snap.Value.Size)
		})
	}
}

func TestSelectStringValueJSONPrettyPrinted(t *testing.T) {
	h := &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: stringTyper,
		getFn:  func(string) ([]byte, error) { return []byte(`{"b":1,"a":[2,3]}`), nil },
	}
	s := newTestSession(t, h)

	s.SelectKey("doc")
	snap := waitFor(t, s, selectReady, "value load")
	text, ok := snap.Value.StringValue()
	require.True(t, ok)
	require.Equal(t, "{\n  \"b\": 1,\n  \"a\": [\n    2,\n    3\n  ]\n}", text)
	// size reflects the stored bytes, not the pretty form
	require.Equal(t, len(`{"b":1,"a":[2,3]}`), snap.Value.Size)
}

func TestSelectBinaryValueStoredAsBytes(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0x00, 0x01}
	h := &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: stringTyper,
		getFn:  func(string) ([]byte, error) { return raw, nil },
	}
	s := newTestSession(t, h)

	s.SelectKey("blob")
	snap := waitFor(t, s, selectReady, "value load")
	data, ok := snap.Value.BytesValue()
	require.True(t, ok)
	require.Equal(t, raw, data)
}

func TestSelectUnsupportedTypeSurfacesError(t *testing.T) {
	h := &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: func(string) (string, error) { return "hash", nil },
	}
	s := newTestSession(t, h)

	s.SelectKey("h")
	snap := waitFor(t, s, selectReady, "select outcome")
	require.Nil(t, snap.Value)
	require.Equal(t, ErrUnsupportedType.Error(), snap.ValueErr)
}

func TestSelectSameKeyIsNoop(t *testing.T) {
	h := &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: stringTyper,
		getFn:  func(string) ([]byte, error) { return []byte("x"), nil },
	}
	s := newTestSession(t, h)
	s.SelectKey("k")
	waitFor(t, s, selectReady, "first load")

	_, _, typeCalls, _ := h.counts()
	s.SelectKey("k")
	settle(s)
	_, _, typeCallsAfter, _ := h.counts()
	require.Equal(t, typeCalls, typeCallsAfter)
}

func listFixture(total int) *fakeHandle {
	elems := make([]string, total)
	for i := range elems {
		elems[i] = fmt.Sprintf("elem-%03d", i)
	}
	return &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: func(string) (string, error) { return "list", nil },
		llenFn: func(string) (int64, error) { return int64(total), nil },
		lrangeFn: func(_ string, start, stop int64) ([]string, error) {
			if start >= int64(total) {
				return nil, nil
			}
			if stop >= int64(total) {
				stop = int64(total) - 1
			}
			return elems[start : stop+1], nil
		},
	}
}

func TestListPagination(t *testing.T) {
	h := listFixture(250)
	s := newTestSession(t, h)

	s.SelectKey("queue")
	snap := waitFor(t, s, selectReady, "initial list load")
	list, ok := snap.Value.ListValue()
	require.True(t, ok)
	require.Equal(t, 250, list.Total)
	require.Len(t, list.Loaded, 100)
	require.Equal(t, "elem-000", list.Loaded[0])

	s.LoadMoreListValue()
	snap = waitFor(t, s, func(sn *Snapshot) bool {
		l, _ := sn.Value.ListValue()
		return len(l.Loaded) == 200
	}, "second page")

	s.LoadMoreListValue()
	snap = waitFor(t, s, func(sn *Snapshot) bool {
		l, _ := sn.Value.ListValue()
		return len(l.Loaded) == 250
	}, "final partial page")
	list, _ = snap.Value.ListValue()
	require.Equal(t, "elem-249", list.Loaded[249])

	// fully loaded: a further call must not issue another fetch
	_, _, _, lranges := h.counts()
	s.LoadMoreListValue()
	settle(s)
	_, _, _, lrangesAfter := h.counts()
	require.Equal(t, lranges, lrangesAfter)
}

func TestLoadMoreIgnoredWithoutListSelection(t *testing.T) {
	h := &fakeHandle{
		ttlFn:  func(string) (int64, error) { return store.TTLPersistent, nil },
		typeFn: stringTyper,
		getFn:  func(string) ([]byte, error) { return []byte("str"), nil },
	}
	s := newTestSession(t, h)
	s.SelectKey("k")
	waitFor(t, s, selectReady, "string load")

	s.LoadMoreListValue()
	snap := settle(s)
	_, ok := snap.Value.StringValue()
	require.True(t, ok)
	_, _, _, lranges := h.counts()
	require.Equal(t, 0, lranges)
}
