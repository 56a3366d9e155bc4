package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	id "alumport/pkg/domain"
	"alumport/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry

	// FailAppend makes every Append return an error, for exercising the
	// recorder's failure path.
	FailAppend error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppend != nil {
		return Entry{}, s.FailAppend
	}

	entry.ID = id.NewEntryID()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for _, e := range s.entries {
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) LatestByTargetAndAction(_ context.Context, target id.UserID, action Action) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest Entry
		found  bool
	)
	for _, e := range s.entries {
		if e.TargetID == nil || *e.TargetID != target || e.Action != action {
			continue
		}
		if !found || e.OccurredAt.After(latest.OccurredAt) {
			latest = e
			found = true
		}
	}
	if !found {
		return Entry{}, sentinel.ErrNotFound
	}
	return latest, nil
}

// Len reports how many entries have been appended.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matches(e Entry, f Filter) bool {
	if f.ActorID != nil {
		if e.ActorID == nil || *e.ActorID != *f.ActorID {
			return false
		}
	}
	if f.TargetID != nil {
		if e.TargetID == nil || *e.TargetID != *f.TargetID {
			return false
		}
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.OccurredAt.Before(f.Since) {
		return false
	}
	return true
}
