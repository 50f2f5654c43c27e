package service

import (
	"sync"

	"candy-drop/pkg/models"
)

// ItemStore is an interface for storing the minted gallery
type ItemStore interface {
	// AddItem appends item unless an item with the same image is stored; it reports whether it was added
	AddItem(item models.MintedItem) bool
	HasItemWithImage(imageURI string) bool
	GetAllItems() []models.MintedItem
	Len() int
}

// inMemoryItemStore is a simple in-memory implementation of ItemStore
type inMemoryItemStore struct {
	items  []models.MintedItem
	images map[string]struct{}
	mu     sync.RWMutex
}

// NewInMemoryItemStore creates a new in-memory store for minted items
func NewInMemoryItemStore() ItemStore {
	return &inMemoryItemStore{
		images: make(map[string]struct{}),
	}
}

func (s *inMemoryItemStore) AddItem(item models.MintedItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.images[item.ImageURI]; exists {
		return false
	}
	s.images[item.ImageURI] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s *inMemoryItemStore) HasItemWithImage(imageURI string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.images[imageURI]
	return exists
}

// GetAllItems returns the stored items in insertion order
func (s *inMemoryItemStore) GetAllItems() []models.MintedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.MintedItem, len(s.items))
	copy(items, s.items)
	return items
}

func (s *inMemoryItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
