package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AgreementStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAgreementStore(db *gorm.DB, logger *zap.Logger) *AgreementStore {
	return &AgreementStore{
		db:     db,
		logger: logger.With(zap.String("store", "agreement")),
	}
}

func (s *AgreementStore) Create(ctx context.Context, a *models.Agreement) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create agreement: %w", err)
	}
	return nil
}

func (s *AgreementStore) Get(ctx context.Context, id string) (*models.Agreement, error) {
	var a models.Agreement
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	return found(&a, err)
}

// GetOwned loads an agreement only if it belongs to userID.
func (s *AgreementStore) GetOwned(ctx context.Context, id, userID string) (*models.Agreement, error) {
	var a models.Agreement
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error
	return found(&a, err)
}

func (s *AgreementStore) List(ctx context.Context) ([]models.Agreement, error) {
	var list []models.Agreement
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return list, nil
}

func (s *AgreementStore) ListByUser(ctx context.Context, userID string) ([]models.Agreement, error) {
	var list []models.Agreement
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list agreements for user: %w", err)
	}
	return list, nil
}

// UpdateStatus overwrites the status whatever it was before.
func (s *AgreementStore) UpdateStatus(ctx context.Context, id string, status models.AgreementStatus) error {
	return s.update(ctx, id, map[string]interface{}{"meta_status": status})
}

func (s *AgreementStore) RecordEnvelope(ctx context.Context, id, envelopeID, envelopeStatus string, status models.AgreementStatus) error {
	return s.update(ctx, id, map[string]interface{}{
		"meta_status":     status,
		"envelope_id":     envelopeID,
		"envelope_status": envelopeStatus,
	})
}

func (s *AgreementStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Agreement{})
	if res.Error != nil {
		return fmt.Errorf("delete agreement %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AgreementStore) update(ctx context.Context, id string, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Agreement{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update agreement %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func found(a *models.Agreement, err error) (*models.Agreement, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load agreement: %w", err)
	}
	return a, nil
}
