package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkazancev/product_catalog/internal/cache"
	"github.com/dkazancev/product_catalog/internal/models"
	"github.com/dkazancev/product_catalog/internal/repo"
	"github.com/dkazancev/product_catalog/internal/transport"
	"github.com/dkazancev/product_catalog/internal/util"
)

func newTestService(t *testing.T) (*CatalogService, *cache.Memory, *repo.GormRepo) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))

	r := repo.New(db)
	mem := cache.NewMemory()
	svc := &CatalogService{Repo: r, Cache: mem, TTL: time.Minute}
	return svc, mem, r
}

func createUser(t *testing.T, r *repo.GormRepo, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))
	return user
}

func createProduct(t *testing.T, svc *CatalogService, name, category string, price float64) *models.Product {
	t.Helper()
	prod, err := svc.CreateProduct(context.Background(), transport.CreateProductRequest{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    category,
	})
	require.NoError(t, err)
	return prod
}

func TestListCachesAndServesHitVerbatim(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	first, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	require.EqualValues(t, 1, first.Total)
	require.Equal(t, 1, mem.Len())

	// A direct store write without invalidation must not show up: the
	// cached page is returned verbatim until the entry is purged.
	require.NoError(t, r.CreateProduct(ctx, &models.Product{
		ID: uuid.NewString(), Name: "mouse", Description: "d", Category: "electronics",
	}))

	second, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAnnotationFrozenAtCacheTime(t *testing.T) {
	ctx := context.Background()
	svc, _, r := newTestService(t)
	alice := createUser(t, r, "alice", "user")
	prod := createProduct(t, svc, "keyboard", "electronics", 49.9)

	added, err := svc.AddFavorite(ctx, "alice", prod.ID)
	require.NoError(t, err)
	require.True(t, added)

	page, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.True(t, page.Items[0].IsFavorite)

	// Drop the favorite behind the cache's back: the stored page keeps the
	// flags computed at annotation time.
	require.NoError(t, r.RemoveFavorite(ctx, alice, prod))

	again, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.True(t, again.Items[0].IsFavorite)
}

func TestProductMutationInvalidatesEveryIdentity(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createUser(t, r, "bob", "user")
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	_, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	_, err = svc.List(ctx, "bob", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, mem.Len())

	createProduct(t, svc, "mouse", "electronics", 19.9)
	require.Equal(t, 0, mem.Len())

	alicePage, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, alicePage.Total)

	bobPage, err := svc.List(ctx, "bob", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, bobPage.Total)
}

func TestFavoriteInvalidatesOnlyActingUser(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createUser(t, r, "bob", "user")
	prod := createProduct(t, svc, "keyboard", "electronics", 49.9)

	_, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	bobBefore, err := svc.List(ctx, "bob", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, mem.Len())

	added, err := svc.AddFavorite(ctx, "alice", prod.ID)
	require.NoError(t, err)
	require.True(t, added)

	// Alice's page is gone, Bob's untouched entry still serves.
	require.Equal(t, 1, mem.Len())
	keys, err := mem.Keys(ctx, ListWildcard("bob"))
	require.NoError(t, err)
	require.Len(t, keys, 1)

	bobAfter, err := svc.List(ctx, "bob", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, bobBefore, bobAfter)
	require.False(t, bobAfter.Items[0].IsFavorite)

	alicePage, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.True(t, alicePage.Items[0].IsFavorite)
}

func TestInvalidateIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	_, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, mem.Len())

	svc.InvalidateUserLists(ctx, "alice")
	require.Equal(t, 0, mem.Len())
	svc.InvalidateUserLists(ctx, "alice")
	require.Equal(t, 0, mem.Len())
}

func TestMinPriceZeroIsARealFilter(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "freebie", "misc", 0)
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	unfiltered, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 2, unfiltered.Total)

	zero := 0.0
	filtered, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{MinPrice: &zero})
	require.NoError(t, err)
	require.EqualValues(t, 2, filtered.Total)

	// Same rows, but distinct cache entries: absent and zero are not the
	// same filter.
	require.Equal(t, 2, mem.Len())

	five := 5.0
	above, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{MinPrice: &five})
	require.NoError(t, err)
	require.EqualValues(t, 1, above.Total)
	require.Equal(t, "keyboard", above.Items[0].Name)
}

func TestOversizedPageSizeSharesOneEntry(t *testing.T) {
	ctx := context.Background()
	svc, mem, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	first, err := svc.List(ctx, "alice", 1, 150, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, util.MaxPageSize, first.Size)

	second, err := svc.List(ctx, "alice", 1, 200, repo.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, first, second)

	// Both requests serve the same clamped page from a single entry.
	require.Equal(t, 1, mem.Len())
}

type brokenCache struct{}

var errCacheDown = errors.New("connection refused")

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Del(context.Context, ...string) error           { return errCacheDown }
func (brokenCache) Keys(context.Context, string) ([]string, error) { return nil, errCacheDown }
func (brokenCache) Ping(context.Context) error                     { return errCacheDown }
func (brokenCache) Close() error                                   { return nil }

func TestCacheBackendDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	svc, _, r := newTestService(t)
	svc.Cache = brokenCache{}
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "keyboard", "electronics", 49.9)

	page, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "keyboard", page.Items[0].Name)

	// Mutations must also succeed with the cache down.
	_, err = svc.CreateProduct(ctx, transport.CreateProductRequest{
		Name: "mouse", Description: "d", Price: 19.9, Category: "electronics",
	})
	require.NoError(t, err)
}

func TestFilteredListConjunction(t *testing.T) {
	ctx := context.Background()
	svc, _, r := newTestService(t)
	createUser(t, r, "alice", "user")
	createProduct(t, svc, "Mechanical Keyboard", "electronics", 120)
	createProduct(t, svc, "Office Keyboard", "electronics", 25)
	createProduct(t, svc, "Keyboard Stand", "furniture", 30)

	name := "keyboard"
	category := "electronics"
	min := 20.0
	max := 60.0
	page, err := svc.List(ctx, "alice", 1, 10, repo.ListFilter{
		Name:     &name,
		Category: &category,
		MinPrice: &min,
		MaxPrice: &max,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	require.Equal(t, "Office Keyboard", page.Items[0].Name)
}
