package session

import (
	"sort"
	"strings"
	"sync"

	"github.com/oakwood-commons/rdx/pkg/logger"
)

// startResolve selects the Unknown keys that are direct children of the
// prefix and classifies them with bounded concurrency. Must run on the
// reducer loop.
func (s *Session) startResolve(prefix string) {
	var candidates []string
	for key, t := range s.st.keys {
		if t != Unknown {
			continue
		}
		suffix, ok := strings.CutPrefix(key, prefix)
		if !ok || strings.Contains(suffix, s.sep) {
			continue
		}
		candidates = append(candidates, key)
	}
	if len(candidates) == 0 {
		return
	}
	sort.Strings(candidates)
	s.fetchTypes(candidates)
}

// typeBatch carries the classification results for one resolver run. Merge
// order does not matter: each key's write is independent and idempotent.
type typeBatch struct {
	types map[string]KeyType
}

func (r typeBatch) apply(s *Session) {
	changed := false
	for key, t := range r.types {
		current, present := s.st.keys[key]
		if !present || current == t {
			continue
		}
		s.st.keys[key] = t
		changed = true
	}
	// One bump for the whole batch so consumers rebuild at most once.
	if changed {
		s.st.bumpTreeVersion()
	}
}

// fetchTypes fans out one type lookup per key, capped at the configured
// concurrency. A failed lookup resolves to Unknown so one bad key cannot
// block the rest.
func (s *Session) fetchTypes(keys []string) {
	workers := s.tuning.ResolveConcurrency
	if workers > len(keys) {
		workers = len(keys)
	}
	go func() {
		handle, err := s.provider.GetConnection(s.ctx, s.name)
		if err != nil {
			s.log.Error(err, "type resolution unavailable", logger.ConnectionKey, s.name)
			return
		}

		var mu sync.Mutex
		types := make(map[string]KeyType, len(keys))

		work := make(chan string)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for key := range work {
					typeLookups.Inc()
					name, err := handle.Type(s.ctx, key)
					if err != nil {
						typeLookupFailures.Inc()
						name = ""
					}
					mu.Lock()
					types[key] = ParseKeyType(name)
					mu.Unlock()
				}
			}()
		}
		for _, key := range keys {
			select {
			case work <- key:
			case <-s.ctx.Done():
				close(work)
				return
			}
		}
		close(work)
		wg.Wait()

		s.enqueue(typeBatch{types: types})
	}()
}
