// Package catalog fills missing display fields on cart and wishlist lines
// from the marketplace catalog, with a Redis cache in front of the lookups.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayamansour/souqsync/internal/identity"
	"github.com/ayamansour/souqsync/internal/upstream"
	pkgerrors "github.com/ayamansour/souqsync/pkg/errors"
	"github.com/ayamansour/souqsync/pkg/logger"
	"github.com/ayamansour/souqsync/pkg/redis"
)

const defaultTTL = 5 * time.Minute

// ProductFetcher fetches catalog records. The catalog is public, so one
// sessionless client serves every session.
type ProductFetcher interface {
	GetProductByID(ctx context.Context, id identity.UpstreamID) (upstream.Product, error)
}

// Cache is the slice of the Redis client the enricher needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CatalogKey(productID string) string
}

// Enrichment carries the display fields a line may be missing.
type Enrichment struct {
	Name  string
	Brand string
	Image string
	Price float64
}

// Enricher resolves product display data by id. Cache failures degrade to
// a direct catalog fetch, never to an error.
type Enricher struct {
	fetcher ProductFetcher
	cache   Cache
	ttl     time.Duration
	logg    *logger.Logger
}

// NewEnricher builds an enricher. cache may be nil, which disables caching.
func NewEnricher(fetcher ProductFetcher, cache Cache, ttl time.Duration, logg *logger.Logger) (*Enricher, error) {
	if fetcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product fetcher is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Enricher{fetcher: fetcher, cache: cache, ttl: ttl, logg: logg}, nil
}

// Lookup resolves the enrichment fields for a raw id in the given storefront
// language. Ids that normalize to nothing resolve to an empty enrichment.
func (e *Enricher) Lookup(ctx context.Context, rawID, lang string) (Enrichment, error) {
	id := identity.NormalizeUpstreamID(rawID)
	if id.IsNull() {
		return Enrichment{}, nil
	}

	product, ok := e.cached(ctx, id)
	if !ok {
		fetched, err := e.fetcher.GetProductByID(ctx, id)
		if err != nil {
			return Enrichment{}, err
		}
		product = fetched
		e.store(ctx, id, product)
	}

	return Enrichment{
		Name:  product.Name(lang),
		Brand: product.Brand,
		Image: product.Image(),
		Price: product.Price,
	}, nil
}

func (e *Enricher) cached(ctx context.Context, id identity.UpstreamID) (upstream.Product, bool) {
	if e.cache == nil {
		return upstream.Product{}, false
	}
	raw, err := e.cache.Get(ctx, e.cache.CatalogKey(id.String()))
	if err != nil {
		if err != redis.Nil && e.logg != nil {
			e.logg.Debug(ctx, "catalog cache read failed")
		}
		return upstream.Product{}, false
	}
	var product upstream.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return upstream.Product{}, false
	}
	return product, true
}

func (e *Enricher) store(ctx context.Context, id identity.UpstreamID, product upstream.Product) {
	if e.cache == nil {
		return
	}
	encoded, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, e.cache.CatalogKey(id.String()), string(encoded), e.ttl); err != nil && e.logg != nil {
		e.logg.Debug(ctx, "catalog cache write failed")
	}
}
