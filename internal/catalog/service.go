package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dkazancev/product_catalog/internal/cache"
	"github.com/dkazancev/product_catalog/internal/models"
	"github.com/dkazancev/product_catalog/internal/repo"
	"github.com/dkazancev/product_catalog/internal/transport"
)

const DefaultListTTL = 60 * time.Second

type CatalogService struct {
	Repo  *repo.GormRepo
	Cache cache.Cache
	TTL   time.Duration
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateProduct(name, description, category string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	return nil
}

func (s *CatalogService) user(ctx context.Context, username string) (*models.User, error) {
	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown user %q", ErrUnauthorized, username)
		}
		return nil, err
	}
	return user, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetProductByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("%w: product with the same name", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prod := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       round2(req.Price),
		Category:    req.Category,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.InvalidateAllLists(ctx)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id string, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		rounded := round2(*req.Price)
		req.Price = &rounded
	}

	prod, err := s.Repo.PatchProduct(ctx, req, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.InvalidateAllLists(ctx)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.InvalidateAllLists(ctx)
	return nil
}

func (s *CatalogService) SetProductImage(ctx context.Context, id, imageURL string) (*models.Product, error) {
	prod, err := s.Repo.SetProductImage(ctx, id, imageURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.InvalidateAllLists(ctx)
	return prod, nil
}

// AddFavorite reports whether the product was newly favorited; adding an
// existing favorite is a no-op.
func (s *CatalogService) AddFavorite(ctx context.Context, username, productID string) (bool, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return false, err
	}

	prod, err := s.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}

	already, err := s.Repo.IsFavorite(ctx, user, prod.ID)
	if err != nil {
		return false, err
	}
	if already {
		return false, nil
	}

	if err := s.Repo.AddFavorite(ctx, user, prod); err != nil {
		return false, err
	}

	s.InvalidateUserLists(ctx, username)
	return true, nil
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, username, productID string) (bool, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return false, err
	}

	prod, err := s.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}

	was, err := s.Repo.IsFavorite(ctx, user, prod.ID)
	if err != nil {
		return false, err
	}
	if !was {
		return false, nil
	}

	if err := s.Repo.RemoveFavorite(ctx, user, prod); err != nil {
		return false, err
	}

	s.InvalidateUserLists(ctx, username)
	return true, nil
}

func (s *CatalogService) ListFavorites(ctx context.Context, username string) ([]transport.ProductResponse, error) {
	user, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}

	items, err := s.Repo.ListFavorites(ctx, user)
	if err != nil {
		return nil, err
	}

	out := make([]transport.ProductResponse, 0, len(items))
	for _, p := range items {
		resp := toResponse(p)
		resp.IsFavorite = true
		out = append(out, resp)
	}
	return out, nil
}
