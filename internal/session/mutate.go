package session

import (
	"fmt"
	"time"

	"github.com/oakwood-commons/rdx/internal/store"
	"github.com/oakwood-commons/rdx/pkg/logger"
)

// Save writes a new string value for the key. On success the in-memory
// value is replaced optimistically; on failure the previous value is left
// untouched. The update-busy flag is always cleared.
func (s *Session) Save(key, value string) {
	s.enqueue(cmdSave{key: key, value: value})
}

// SetTTL parses a human-readable duration (e.g. "1h30m") and issues an
// expire request. A parse failure is returned synchronously as a
// validation error without contacting the store.
func (s *Session) SetTTL(key, human string) error {
	d, err := time.ParseDuration(human)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", human, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", human)
	}
	s.enqueue(cmdSetTTL{key: key, seconds: int64(d / time.Second)})
	return nil
}

// DeleteKey removes the key from the store and, on success, from the
// discovered key set. A failed delete leaves state unchanged apart from
// the cleared busy flag.
func (s *Session) DeleteKey(key string) {
	s.enqueue(cmdDelete{key: key})
}

type cmdSave struct {
	key   string
	value string
}

func (c cmdSave) apply(s *Session) {
	s.st.updating = true
	s.touch()
	go func() {
		err := s.withHandle(func(h store.Handle) error {
			return h.Set(s.ctx, c.key, c.value)
		})
		s.enqueue(saved{key: c.key, value: c.value, err: err})
	}()
}

type saved struct {
	key   string
	value string
	err   error
}

func (r saved) apply(s *Session) {
	defer func() { s.st.updating = false }()
	if r.err != nil {
		mutationFailures.Inc()
		s.log.Error(r.err, "save failed", logger.ConnectionKey, s.name, logger.KeyKey, r.key)
		return
	}
	mutations.Inc()
	if s.st.selectedKey == r.key && s.st.value != nil {
		next := *s.st.value
		next.Data = StringData(r.value)
		next.Size = len(r.value)
		s.st.value = &next
	}
}

type cmdSetTTL struct {
	key     string
	seconds int64
}

func (c cmdSetTTL) apply(s *Session) {
	s.st.updating = true
	s.touch()
	go func() {
		var accepted bool
		err := s.withHandle(func(h store.Handle) error {
			var err error
			accepted, err = h.Expire(s.ctx, c.key, c.seconds)
			return err
		})
		s.enqueue(ttlSet{key: c.key, seconds: c.seconds, accepted: accepted, err: err})
	}()
}

type ttlSet struct {
	key      string
	seconds  int64
	accepted bool
	err      error
}

func (r ttlSet) apply(s *Session) {
	defer func() { s.st.updating = false }()
	if r.err != nil {
		mutationFailures.Inc()
		s.log.Error(r.err, "expire failed", logger.ConnectionKey, s.name, logger.KeyKey, r.key)
		return
	}
	mutations.Inc()
	if r.accepted && s.st.selectedKey == r.key && s.st.value != nil {
		next := *s.st.value
		at := s.now().Unix() + r.seconds
		next.ExpiresAt = &at
		s.st.value = &next
	}
}

type cmdDelete struct {
	key string
}

func (c cmdDelete) apply(s *Session) {
	s.st.deleting = true
	s.touch()
	go func() {
		err := s.withHandle(func(h store.Handle) error {
			return h.Del(s.ctx, c.key)
		})
		s.enqueue(deleted{key: c.key, err: err})
	}()
}

type deleted struct {
	key string
	err error
}

func (r deleted) apply(s *Session) {
	defer func() { s.st.deleting = false }()
	if r.err != nil {
		mutationFailures.Inc()
		s.log.Error(r.err, "delete failed", logger.ConnectionKey, s.name, logger.KeyKey, r.key)
		return
	}
	mutations.Inc()
	if _, present := s.st.keys[r.key]; present {
		delete(s.st.keys, r.key)
		s.st.bumpTreeVersion()
	}
	if s.st.selectedKey == r.key {
		s.st.selectedKey = ""
		s.st.value = nil
		s.st.valueErr = ""
	}
}
