package review

import (
	"fmt"
	"sync"

	"github.com/spacesedan/sentinel-review/internal/models"
)

// Session holds the in-memory review state: the item list the dashboard
// pages through and the human decisions recorded against it. All mutation
// goes through the lock so that batch and interactive submissions can
// share one session.
type Session struct {
	mu        sync.Mutex
	items     []models.ContentItem
	decisions map[string]models.ReviewStatus
	focus     int
}

func NewSession() *Session {
	return &Session{
		decisions: make(map[string]models.ReviewStatus),
	}
}

// Upsert inserts an item or replaces the existing item with the same id in
// place. The focus index only moves for interactive submissions, never
// during batch iteration.
func (s *Session) Upsert(item models.ContentItem, focusNewItem bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = item
			if focusNewItem {
				s.focus = i
			}
			return
		}
	}

	s.items = append(s.items, item)
	if focusNewItem {
		s.focus = len(s.items) - 1
	}
}

func (s *Session) Items() []models.ContentItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.ContentItem(nil), s.items...)
}

func (s *Session) Item(id string) (models.ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.ContentItem{}, false
}

func (s *Session) Focus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// Decide records a human approve/reject for a known item. Deciding twice
// overwrites the previous decision.
func (s *Session) Decide(id string, status models.ReviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown item id %q", id)
	}

	s.decisions[id] = status
	return nil
}

func (s *Session) Decisions() map[string]models.ReviewStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.ReviewStatus, len(s.decisions))
	for id, status := range s.decisions {
		out[id] = status
	}
	return out
}
