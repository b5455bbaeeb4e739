package session

import (
	"github.com/oakwood-commons/rdx/internal/store"
	"github.com/oakwood-commons/rdx/pkg/logger"
)

// StartScan resets discovery state and begins a new scan chain for the
// given keyword and query mode.
func (s *Session) StartScan(keyword string, mode QueryMode) {
	s.enqueue(cmdStartScan{keyword: keyword, mode: mode})
}

// ScanMore raises the result cap by one round and resumes a paused,
// incomplete chain.
func (s *Session) ScanMore() {
	s.enqueue(cmdScanMore{})
}

// ScanPrefix expands one namespace subtree: a bounded, self-contained page
// loop against a prefix-anchored pattern.
func (s *Session) ScanPrefix(prefix string) {
	s.enqueue(cmdScanPrefix{prefix: prefix})
}

type cmdStartScan struct {
	keyword string
	mode    QueryMode
}

func (c cmdStartScan) apply(s *Session) {
	s.st.resetScan()
	s.st.scanning = true
	s.st.filter = c.keyword
	s.st.mode = c.mode
	s.fetchPage(s.generation(), nil)
}

type cmdScanMore struct{}

func (c cmdScanMore) apply(s *Session) {
	if s.st.completed || s.st.scanning {
		return
	}
	s.st.round++
	s.st.scanning = true
	s.fetchPage(s.generation(), s.st.cursors.Clone())
}

// scanPage is the result of one page request within a scan chain.
type scanPage struct {
	gen     generation
	cursors store.CursorSet
	keys    []string
	err     error
}

func (r scanPage) apply(s *Session) {
	if !r.gen.current(s) {
		// superseded chain, drop on arrival
		return
	}
	if r.err != nil {
		// A failed page aborts the chain but keeps partial results; a
		// cleared cursor makes any retry start fresh.
		scanFailures.Inc()
		s.log.Error(r.err, "scan page failed", logger.ConnectionKey, s.name, logger.FilterKey, s.st.filter)
		s.st.cursors = nil
		s.endScanChain()
		return
	}

	scanPages.Inc()
	keysDiscovered.Add(len(r.keys))
	s.st.extendKeys(r.keys)
	if r.cursors.Done() {
		s.st.completed = true
		s.st.cursors = nil
	} else {
		s.st.cursors = r.cursors
	}

	limit := s.tuning.PageCap * (s.st.round + 1)
	if !s.st.completed && len(s.st.keys) < limit {
		// Continue the chain: one page per suspend point, generation
		// re-checked when the next result arrives.
		s.fetchPage(r.gen, s.st.cursors.Clone())
		return
	}
	s.endScanChain()
}

// endScanChain marks the chain finished and kicks off type classification
// for top-level keys still Unknown.
func (s *Session) endScanChain() {
	s.st.scanning = false
	s.startResolve("")
}

// fetchPage issues one page request in the background. cursors == nil means
// a first-page request.
func (s *Session) fetchPage(gen generation, cursors store.CursorSet) {
	pattern := gen.mode.Pattern(gen.filter)
	count := int64(s.tuning.EmptyFilterPageSize)
	if gen.filter != "" {
		count = int64(s.tuning.FilteredPageSize)
	}
	go func() {
		handle, err := s.provider.GetClient(s.ctx, gen.conn)
		if err != nil {
			s.enqueue(scanPage{gen: gen, err: err})
			return
		}
		var next store.CursorSet
		var keys []string
		if cursors == nil {
			next, keys, err = handle.FirstScan(s.ctx, pattern, count)
		} else {
			next, keys, err = handle.Scan(s.ctx, cursors, pattern, count)
		}
		s.enqueue(scanPage{gen: gen, cursors: next, keys: keys, err: err})
	}()
}

type cmdScanPrefix struct {
	prefix string
}

func (c cmdScanPrefix) apply(s *Session) {
	if _, loaded := s.st.loadedPrefixes[c.prefix]; loaded {
		return
	}
	if s.st.completed {
		// the key space is fully known, only types may be missing
		s.startResolve(c.prefix)
		return
	}
	s.touch()
	s.fetchPrefix(s.generation(), c.prefix)
}

// prefixScanned is the merged result of a private prefix page loop.
type prefixScanned struct {
	gen    generation
	prefix string
	keys   []string
	err    error
}

func (r prefixScanned) apply(s *Session) {
	if !r.gen.current(s) {
		return
	}
	if r.err != nil {
		scanFailures.Inc()
		s.log.Error(r.err, "prefix scan failed", logger.ConnectionKey, s.name, logger.PrefixKey, r.prefix)
		return
	}
	s.st.loadedPrefixes[r.prefix] = struct{}{}
	s.st.extendKeys(r.keys)
	s.startResolve(r.prefix)
}

// fetchPrefix runs the bounded prefix page loop in the background,
// accumulating locally and delivering one merged result.
func (s *Session) fetchPrefix(gen generation, prefix string) {
	pattern := prefix + "*"
	count := int64(s.tuning.FilteredPageSize)
	rounds := s.tuning.PrefixRounds
	go func() {
		handle, err := s.provider.GetClient(s.ctx, gen.conn)
		if err != nil {
			s.enqueue(prefixScanned{gen: gen, prefix: prefix, err: err})
			return
		}
		var cursors store.CursorSet
		var acc []string
		for i := 0; i < rounds; i++ {
			var keys []string
			if cursors == nil {
				cursors, keys, err = handle.FirstScan(s.ctx, pattern, count)
			} else {
				cursors, keys, err = handle.Scan(s.ctx, cursors, pattern, count)
			}
			if err != nil {
				s.enqueue(prefixScanned{gen: gen, prefix: prefix, err: err})
				return
			}
			scanPages.Inc()
			acc = append(acc, keys...)
			if cursors.Done() {
				break
			}
		}
		keysDiscovered.Add(len(acc))
		s.enqueue(prefixScanned{gen: gen, prefix: prefix, keys: acc})
	}()
}
