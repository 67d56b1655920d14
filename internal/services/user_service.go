package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpdateUserInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
}

type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserService(db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger.With(zap.String("service", "user_service")),
	}
}

func (us *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := us.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (us *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := us.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundf("user %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (us *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	user, err := us.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if !utils.ValidEmail(email) {
			return nil, invalidf("email %q is not valid", *in.Email)
		}
		if email != user.Email {
			var count int64
			if err := us.db.WithContext(ctx).Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, fmt.Errorf("%w: email already registered", ErrConflict)
			}
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := us.db.WithContext(ctx).Model(user).Updates(fields).Error; err != nil {
		return nil, err
	}
	return us.Get(ctx, id)
}

func (us *UserService) Delete(ctx context.Context, id string) error {
	res := us.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundf("user %s", id)
	}
	us.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}
