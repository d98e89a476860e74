package daemon

import (
	"sync"

	"github.com/charlie0129/phmeter/pkg/meter"
)

// resultStore holds the most recent measurement. Each new measurement
// replaces the previous one as a whole.
type resultStore struct {
	mu   sync.RWMutex
	last *meter.Measurement
}

func (s *resultStore) Set(m meter.Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &m
}

// Get returns a copy of the latest measurement, if any.
func (s *resultStore) Get() (meter.Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return meter.Measurement{}, false
	}
	return *s.last, true
}
