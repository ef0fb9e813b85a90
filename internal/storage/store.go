package storage

import "errors"

// Reserved keys used by the storefront.
const (
	KeyToken    = "token"
	KeyRole     = "role"
	KeyUser     = "user"
	KeyCart     = "cart"
	KeyWishlist = "wishlist"
)

var ErrKeyNotFound = errors.New("key not found")

// KVStore is the durable local key-value record store the storefront
// state survives restarts through. Last write wins; no cross-process
// locking.
type KVStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}
