package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/dkazancev/product_catalog/internal/models"
)

func (r *GormRepo) AddFavorite(ctx context.Context, user *models.User, prod *models.Product) error {
	return r.DB.WithContext(ctx).Model(user).Association("Favorites").Append(prod)
}

func (r *GormRepo) RemoveFavorite(ctx context.Context, user *models.User, prod *models.Product) error {
	return r.DB.WithContext(ctx).Model(user).Association("Favorites").Delete(prod)
}

// FavoriteIDs returns the user's favorited product ids as a set for O(1)
// membership tests during list annotation.
func (r *GormRepo) FavoriteIDs(ctx context.Context, user *models.User) (map[string]struct{}, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Table("user_favorite_products").
		Where("user_id = ?", user.ID).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (r *GormRepo) IsFavorite(ctx context.Context, user *models.User, productID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Table("user_favorite_products").
		Where("user_id = ? AND product_id = ?", user.ID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListFavorites(ctx context.Context, user *models.User) ([]models.Product, error) {
	var items []models.Product
	err := r.DB.WithContext(ctx).Model(user).
		Association("Favorites").
		Find(&items)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	return items, nil
}
