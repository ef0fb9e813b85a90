package cart

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/storage"
)

// Notifier receives the add-to-cart toast payload.
type Notifier interface {
	Show(n domain.Notification)
}

// Service owns the cart line items and their derived totals. Mutations
// update memory first and persist to the local store best-effort; a
// persistence failure never fails or rolls back the mutation.
type Service struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	store    storage.KVStore
	notifier Notifier
	writes   chan *string   // serialized persistence queue; nil removes the record
	wg       sync.WaitGroup // tracks queued persistence operations
}

func NewService(store storage.KVStore, notifier Notifier) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		writes:   make(chan *string, 64),
	}
	s.restore()
	go s.writer()
	return s
}

// restore loads the persisted cart. A missing or malformed record means
// an empty cart; the user never loses the session over bad local data.
func (s *Service) restore() {
	data, err := s.store.Get(storage.KeyCart)
	if err != nil {
		return
	}
	var lines []domain.CartLine
	if errUnmarshal := json.Unmarshal([]byte(data), &lines); errUnmarshal != nil {
		log.Printf("discarding malformed persisted cart: %v", errUnmarshal)
		return
	}
	s.lines = lines
}

// AddItem merges into an existing line with the same (product, variant)
// identity or appends a new one, then raises a toast.
func (s *Service) AddItem(product domain.Product, quantity int, variant *domain.Variant) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	key := domain.CartLine{ProductID: product.ID, Variant: variant}.LineKey()
	merged := false
	for i := range s.lines {
		if s.lines[i].LineKey() == key {
			s.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			Variant:   variant,
		})
	}
	s.persistLocked()
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Show(domain.Notification{
			ProductID:   product.ID,
			ProductName: product.Name,
			ImageURL:    product.ImageURL,
			VariantName: variant.Key(),
			Quantity:    quantity,
			CreatedAt:   time.Now(),
		})
	}
}

// RemoveItem drops every line of the product, regardless of variant.
// Removal takes no variant discriminator, so a product with several
// variant lines is removed as a whole rather than leaving an arbitrary
// survivor.
func (s *Service) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	s.persistLocked()
}

// UpdateQuantity sets the quantity of the matching line, clamped to a
// minimum of 1. Decrementing to zero keeps the line; removal is a
// separate explicit action.
func (s *Service) UpdateQuantity(productID int64, variantKey string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Variant.Key() == variantKey {
			s.lines[i].Quantity = quantity
			s.persistLocked()
			return
		}
	}
}

// UpdateVariant swaps the variant on a matching line without touching
// its quantity. If the new identity collides with another line the two
// merge, keeping the one-line-per-identity invariant.
func (s *Service) UpdateVariant(productID int64, oldVariantKey string, newVariant *domain.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := -1
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Variant.Key() == oldVariantKey {
			src = i
			break
		}
	}
	if src == -1 {
		return
	}

	newKey := domain.CartLine{ProductID: productID, Variant: newVariant}.LineKey()
	for i := range s.lines {
		if i != src && s.lines[i].LineKey() == newKey {
			s.lines[i].Quantity += s.lines[src].Quantity
			s.lines = append(s.lines[:src], s.lines[src+1:]...)
			s.persistLocked()
			return
		}
	}

	s.lines[src].Variant = newVariant
	s.persistLocked()
}

// Clear empties the cart and removes the persisted record. The removal
// goes through the same serialized queue as writes, so no earlier write
// can land after it and resurrect the record.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.wg.Add(1)
	s.writes <- nil
}

// Subtotal is derived on every read, never stored.
func (s *Service) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, l := range s.lines {
		sum += l.LineTotal()
	}
	return sum
}

// Lines returns a copy of the cart lines in stable display order.
func (s *Service) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// persistLocked snapshots the cart and enqueues the write without
// blocking the mutation.
func (s *Service) persistLocked() {
	data, err := json.Marshal(s.lines)
	if err != nil {
		log.Printf("failed to marshal cart: %v", err)
		return
	}
	value := string(data)
	s.wg.Add(1)
	s.writes <- &value
}

// writer applies persistence operations strictly in mutation order, so
// the persisted record always ends up reflecting the latest mutation
// once the queue drains.
func (s *Service) writer() {
	for data := range s.writes {
		if data == nil {
			if err := s.store.Delete(storage.KeyCart); err != nil {
				log.Printf("failed to remove persisted cart: %v", err)
			}
		} else if err := s.store.Set(storage.KeyCart, *data); err != nil {
			log.Printf("failed to persist cart: %v", err)
		}
		s.wg.Done()
	}
}

// Flush waits for outstanding persistence writes. Used on shutdown and
// in tests.
func (s *Service) Flush() {
	s.wg.Wait()
}
