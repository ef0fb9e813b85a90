package wishlist

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storage"
)

// Service keeps the saved-products list. Set semantics keyed by product
// ID; no quantities, no variants.
type Service struct {
	mu     sync.Mutex
	items  []domain.WishlistItem
	store  storage.KVStore
	writes chan string // serialized persistence queue
	wg     sync.WaitGroup
}

func NewService(store storage.KVStore) *Service {
	s := &Service{
		store:  store,
		writes: make(chan string, 64),
	}
	s.restore()
	go s.writer()
	return s
}

func (s *Service) restore() {
	data, err := s.store.Get(storage.KeyWishlist)
	if err != nil {
		return
	}
	var items []domain.WishlistItem
	if errUnmarshal := json.Unmarshal([]byte(data), &items); errUnmarshal != nil {
		log.Printf("discarding malformed persisted wishlist: %v", errUnmarshal)
		return
	}
	s.items = items
}

// Add is idempotent: a product already on the list stays as it was.
func (s *Service) Add(item domain.WishlistItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(item.ProductID) != -1 {
		return
	}
	s.items = append(s.items, item)
	s.persistLocked()
}

func (s *Service) Remove(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(productID)
	if i == -1 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persistLocked()
}

func (s *Service) Contains(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(productID) != -1
}

// Toggle adds the product if absent, removes it if present. Returns true
// when the product ended up on the list.
func (s *Service) Toggle(item domain.WishlistItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(item.ProductID); i != -1 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.persistLocked()
		return false
	}
	s.items = append(s.items, item)
	s.persistLocked()
	return true
}

func (s *Service) Items() []domain.WishlistItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.WishlistItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Service) indexLocked(productID int64) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// persistLocked snapshots the list and enqueues the write without
// blocking the mutation.
func (s *Service) persistLocked() {
	data, err := json.Marshal(s.items)
	if err != nil {
		log.Printf("failed to marshal wishlist: %v", err)
		return
	}
	s.wg.Add(1)
	s.writes <- string(data)
}

// writer applies writes strictly in mutation order, so the persisted
// record always ends up reflecting the latest mutation once the queue
// drains.
func (s *Service) writer() {
	for data := range s.writes {
		if err := s.store.Set(storage.KeyWishlist, data); err != nil {
			log.Printf("failed to persist wishlist: %v", err)
		}
		s.wg.Done()
	}
}

// Flush waits for outstanding persistence writes.
func (s *Service) Flush() {
	s.wg.Wait()
}
