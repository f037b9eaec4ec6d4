package repo

import (
	"context"

	"github.com/dkazancev/product_catalog/internal/models"
)

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}
