package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fjod/go_storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ProductsAPI is the slice of the backend client the catalog reads from.
type ProductsAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// Service is a read-through product catalog: cache first, backend on
// miss, with singleflight so concurrent misses for the same key produce
// a single fetch.
type Service struct {
	api   ProductsAPI
	cache Cache
	sfg   singleflight.Group
}

func NewService(api ProductsAPI, cache Cache) *Service {
	return &Service{
		api:   api,
		cache: cache,
	}
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(productKey(id), func() (interface{}, error) {
		product, errCache := s.cache.GetProduct(ctx, id)
		if errCache == nil {
			return product, nil
		}
		if !errors.Is(errCache, ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", errCache)
		}

		product, errGet := s.api.GetProduct(ctx, id)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			if errSet := s.cache.SetProduct(context.Background(), product); errSet != nil {
				log.Printf("catalog cache set error: %v", errSet)
			}
		}()

		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do(allProductsKey, func() (interface{}, error) {
		products, errCache := s.cache.GetAll(ctx)
		if errCache == nil {
			return products, nil
		}
		if !errors.Is(errCache, ErrCacheMiss) {
			log.Printf("catalog cache get error: %v", errCache)
		}

		products, errList := s.api.ListProducts(ctx)
		if errList != nil {
			return nil, errList
		}

		go func() {
			if errSet := s.cache.SetAll(context.Background(), products); errSet != nil {
				log.Printf("catalog cache set error: %v", errSet)
			}
		}()

		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// Invalidate drops cached entries for a product after a staff mutation.
func (s *Service) Invalidate(ctx context.Context, id int64) error {
	if err := s.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", id, err)
	}
	return nil
}
