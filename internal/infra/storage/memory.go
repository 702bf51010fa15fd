package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/bryanwahyu/upstarter/internal/domain/pitchdeck"
)

// MemoryDeckStore is the pitch deck store used when no object store is
// configured. Decks are copied on the way in and out.
type MemoryDeckStore struct {
	mu    sync.RWMutex
	decks map[string]pitchdeck.Deck
}

func NewMemoryDeckStore() *MemoryDeckStore {
	return &MemoryDeckStore{decks: map[string]pitchdeck.Deck{}}
}

func (m *MemoryDeckStore) Get(_ context.Context, email string) (*pitchdeck.Deck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.decks[strings.ToLower(email)]
	if !ok {
		return nil, pitchdeck.ErrNotFound
	}
	return cloneDeck(d), nil
}

func (m *MemoryDeckStore) Save(_ context.Context, d *pitchdeck.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decks[strings.ToLower(d.UserEmail)] = *cloneDeck(*d)
	return nil
}

func cloneDeck(d pitchdeck.Deck) *pitchdeck.Deck {
	d.Slides = append([]pitchdeck.Slide(nil), d.Slides...)
	return &d
}
