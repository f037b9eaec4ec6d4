package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkazancev/product_catalog/internal/cache"
	"github.com/dkazancev/product_catalog/internal/logging"
	"github.com/dkazancev/product_catalog/internal/models"
	"github.com/dkazancev/product_catalog/internal/repo"
	"github.com/dkazancev/product_catalog/internal/transport"
	"github.com/dkazancev/product_catalog/internal/util"
)

func toResponse(p models.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// annotate marks each row's favorite flag from the user's favorite-id set.
// It runs before the page is cached: a stored page is never re-annotated.
func annotate(items []models.Product, favorites map[string]struct{}) []transport.ProductResponse {
	out := make([]transport.ProductResponse, 0, len(items))
	for _, p := range items {
		resp := toResponse(p)
		_, resp.IsFavorite = favorites[p.ID]
		out = append(out, resp)
	}
	return out
}

func (s *CatalogService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultListTTL
}

// List serves a filtered product page through the cache. A cache hit is
// returned verbatim; invalidation, not re-annotation, keeps entries honest.
// Any cache failure degrades to a direct store query and is never surfaced.
func (s *CatalogService) List(ctx context.Context, identity string, page, size int, f repo.ListFilter) (*transport.ProductPage, error) {
	l := logging.FromContext(ctx)

	// Clamp before the key is built so oversized requests share one entry
	// and the cached size matches the served size.
	size = util.ClampPageSize(size)
	key := ListKey(identity, page, size, f)

	if b, err := s.Cache.Get(ctx, key); err == nil {
		var cached transport.ProductPage
		if uerr := json.Unmarshal(b, &cached); uerr != nil {
			l.Warn("list_cache_decode_failed", "key", key, "error", uerr)
		} else {
			return &cached, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn("list_cache_get_failed", "key", key, "error", err)
	}

	user, err := s.user(ctx, identity)
	if err != nil {
		return nil, err
	}

	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}

	favorites, err := s.Repo.FavoriteIDs(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &transport.ProductPage{
		Items: annotate(items, favorites),
		Page:  page,
		Size:  limit,
		Total: total,
	}

	if b, err := json.Marshal(result); err == nil {
		if err := s.Cache.Set(ctx, key, b, s.ttl()); err != nil {
			l.Warn("list_cache_set_failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// InvalidateUserLists drops every cached list page for one identity.
// Invalidating an identity with no cached entries is a no-op.
func (s *CatalogService) InvalidateUserLists(ctx context.Context, identity string) {
	s.invalidate(ctx, ListWildcard(identity))
}

// InvalidateAllLists drops every cached list page. Product mutations are
// global, so they must not leave any user's stale page behind.
func (s *CatalogService) InvalidateAllLists(ctx context.Context) {
	s.invalidate(ctx, ListWildcardAll())
}

// invalidate runs after the store mutation committed. A concurrent stale
// read may still re-populate one entry between Keys and Del; that window is
// bounded by the TTL.
func (s *CatalogService) invalidate(ctx context.Context, pattern string) {
	l := logging.FromContext(ctx)

	keys, err := s.Cache.Keys(ctx, pattern)
	if err != nil {
		l.Warn("list_invalidate_keys_failed", "pattern", pattern, "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.Cache.Del(ctx, keys...); err != nil {
		l.Warn("list_invalidate_del_failed", "pattern", pattern, "error", err)
	}
}
