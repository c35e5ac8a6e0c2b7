package command

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

type Entry struct {
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	Pattern string    `json:"pattern"`
}

// History remembers the most recently dispatched commands. It is read
// concurrently by the preview server.
type History struct {
	mu      sync.Mutex
	entries deque.Deque[Entry]
	limit   int
}

func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

func (s *History) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.PushBack(e)
	for s.entries.Len() > s.limit {
		s.entries.PopFront()
	}
}

func (s *History) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Entries returns the history oldest first.
func (s *History) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]Entry, 0, s.entries.Len())
	for i := 0; i < s.entries.Len(); i++ {
		ret = append(ret, s.entries.At(i))
	}
	return ret
}
