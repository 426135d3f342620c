package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/basecamp/internal/feed"
)

// Snapshot represents the latest collections available to the UI.
type Snapshot struct {
	Treks               []feed.TrekCard
	Posts               []feed.PostCard
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored collections. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(treks []feed.TrekCard, posts []feed.PostCard, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Treks = slices.Clone(treks)
	s.snapshot.Posts = clonePosts(posts)
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Treks = slices.Clone(s.snapshot.Treks)
	snap.Posts = clonePosts(s.snapshot.Posts)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func clonePosts(posts []feed.PostCard) []feed.PostCard {
	if len(posts) == 0 {
		return nil
	}
	dup := make([]feed.PostCard, len(posts))
	for i, p := range posts {
		p.Comments = slices.Clone(p.Comments)
		dup[i] = p
	}
	return dup
}
