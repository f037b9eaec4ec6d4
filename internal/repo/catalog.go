package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dkazancev/product_catalog/internal/models"
	"github.com/dkazancev/product_catalog/internal/transport"
)

// ListFilter holds the optional product list filters. Nil means the filter
// was not supplied, which is distinct from an explicit zero value.
type ListFilter struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

func applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.Name != nil {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+*f.Name+"%")
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

func (r *GormRepo) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, f ListFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := applyFilter(r.DB.WithContext(ctx).Model(&models.Product{}), f).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}

	if err := r.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, err
	}

	return &prod, nil
}

func (r *GormRepo) SetProductImage(ctx context.Context, id, imageURL string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&prod).Error; err != nil {
		return nil, err
	}
	prod.ImageURL = imageURL
	if err := r.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
