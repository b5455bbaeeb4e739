package session

import (
	"bytes"
	"encoding/json"
	"time"
	"unicode/utf8"
)

// Expiry sentinels stored in Value.ExpiresAt. Values >= 0 are absolute
// unix timestamps.
const (
	// ExpiresNever marks a key that persists forever.
	ExpiresNever int64 = -1
	// ExpiresMissing marks a key that no longer exists.
	ExpiresMissing int64 = -2
)

// ValueData is the type-specific payload of a loaded value.
type ValueData interface{ isValueData() }

// StringData holds a display-ready text value. JSON values are stored
// pretty-printed.
type StringData string

// BytesData holds an opaque non-UTF-8 value; rendering layers fall back to
// a hex dump.
type BytesData []byte

// ListData holds the total list length plus the elements loaded so far, in
// order.
type ListData struct {
	Total  int
	Loaded []string
}

func (StringData) isValueData() {}
func (BytesData) isValueData()  {}
func (ListData) isValueData()   {}

// Value is a loaded key value. Values are immutable once published; the
// reducer replaces the whole Value when anything changes.
type Value struct {
	Type KeyType
	Data ValueData
	// ExpiresAt is nil when no TTL info was fetched, ExpiresNever or
	// ExpiresMissing for those sentinels, otherwise an absolute unix
	// timestamp.
	ExpiresAt *int64
	// Size is the byte length for string values and the total element
	// count for lists.
	Size int
}

// StringValue returns the text payload, if this is a text value.
func (v *Value) StringValue() (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.Data.(StringData)
	return string(s), ok
}

// BytesValue returns the opaque payload, if this is a bytes value.
func (v *Value) BytesValue() ([]byte, bool) {
	if v == nil {
		return nil, false
	}
	b, ok := v.Data.(BytesData)
	return []byte(b), ok
}

// ListValue returns the list payload, if this is a list value.
func (v *Value) ListValue() (ListData, bool) {
	if v == nil {
		return ListData{}, false
	}
	l, ok := v.Data.(ListData)
	return l, ok
}

// IsMissing reports whether the value describes a key that did not exist
// when it was loaded.
func (v *Value) IsMissing() bool {
	return v != nil && v.ExpiresAt != nil && *v.ExpiresAt == ExpiresMissing
}

// TTLRemaining converts the stored expiry into a remaining duration
// relative to now. Sentinel expiries pass through as negative second
// counts; an elapsed expiry reports the missing sentinel.
func (v *Value) TTLRemaining(now time.Time) (time.Duration, bool) {
	if v == nil || v.ExpiresAt == nil {
		return 0, false
	}
	at := *v.ExpiresAt
	if at < 0 {
		return time.Duration(at) * time.Second, true
	}
	remaining := at - now.Unix()
	if remaining < 0 {
		return time.Duration(ExpiresMissing) * time.Second, true
	}
	return time.Duration(remaining) * time.Second, true
}

// newStringValue classifies raw string-key bytes for display: valid JSON is
// re-serialized pretty-printed, other UTF-8 text is kept verbatim, and
// everything else is stored as opaque bytes.
func newStringValue(raw []byte) *Value {
	size := len(raw)
	if size == 0 {
		return &Value{Type: String, Data: StringData(""), Size: 0}
	}
	if json.Valid(raw) {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err == nil {
			return &Value{Type: String, Data: StringData(pretty.String()), Size: size}
		}
	}
	if utf8.Valid(raw) {
		return &Value{Type: String, Data: StringData(string(raw)), Size: size}
	}
	return &Value{Type: String, Data: BytesData(raw), Size: size}
}

func expiresAt(ttl int64, now time.Time) *int64 {
	switch {
	case ttl == -1:
		v := ExpiresNever
		return &v
	case ttl >= 0:
		v := now.Unix() + ttl
		return &v
	default:
		return nil
	}
}
