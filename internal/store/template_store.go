package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("template version changed concurrently")
)

// Scope narrows a template query.
type Scope func(*gorm.DB) *gorm.DB

type TemplateStore struct {
	db     *gorm.DB
	cache  *TemplateCache
	logger *zap.Logger
}

func NewTemplateStore(db *gorm.DB, cache *TemplateCache, logger *zap.Logger) *TemplateStore {
	return &TemplateStore{
		db:     db,
		cache:  cache,
		logger: logger.With(zap.String("store", "template")),
	}
}

func (s *TemplateStore) Create(ctx context.Context, t *models.Template) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create template %s: %w", t.TemplateID, err)
	}
	s.cache.Invalidate(ctx, t.TemplateID)
	return nil
}

// Current returns the newest non-archived record of a logical template.
func (s *TemplateStore) Current(ctx context.Context, templateID string) (*models.Template, error) {
	if cached, ok := s.cache.Get(ctx, templateID); ok {
		return cached, nil
	}

	var t models.Template
	err := s.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Where("meta_status <> ?", models.TemplateArchived).
		Order("created_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", templateID, err)
	}

	s.cache.Set(ctx, &t)
	return &t, nil
}

// History lists every stored record of a logical template, oldest first.
func (s *TemplateStore) History(ctx context.Context, templateID string) ([]models.Template, error) {
	var records []models.Template
	err := s.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load template history %s: %w", templateID, err)
	}
	return records, nil
}

// Exists reports whether a template with the logical id, or with the same
// name and category, is already stored.
func (s *TemplateStore) Exists(ctx context.Context, templateID, name string, category models.TemplateCategory) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Template{}).
		Where("template_id = ? OR (name = ? AND category = ?)", templateID, name, category).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *TemplateStore) Find(ctx context.Context, scopes ...Scope) ([]models.Template, error) {
	query := s.db.WithContext(ctx).Model(&models.Template{})
	for _, scope := range scopes {
		query = scope(query)
	}

	var records []models.Template
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	return records, nil
}

// Supersede archives current and inserts next in one transaction. The archive
// only applies if current still has the status it was read with; otherwise
// nothing is written and ErrVersionConflict is returned.
func (s *TemplateStore) Supersede(ctx context.Context, current, next *models.Template) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Template{}).
			Where("record_id = ? AND meta_status = ?", current.RecordID, current.Metadata.Status).
			Updates(map[string]interface{}{
				"meta_status": models.TemplateArchived,
				"updated_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrVersionConflict
		}
		return tx.Create(next).Error
	})
	if err != nil {
		if !errors.Is(err, ErrVersionConflict) {
			err = fmt.Errorf("supersede template %s: %w", current.TemplateID, err)
		}
		return err
	}

	current.Metadata.Status = models.TemplateArchived
	s.cache.Invalidate(ctx, current.TemplateID)
	s.logger.Info("Template superseded",
		zap.String("template_id", current.TemplateID),
		zap.String("from", current.Version),
		zap.String("to", next.Version),
	)
	return nil
}

func WithCategory(category models.TemplateCategory) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("category = ?", category)
	}
}

// WithAllTags matches templates carrying every tag.
func WithAllTags(tags []string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		for _, tag := range tags {
			db = db.Where(`meta_tags LIKE ? ESCAPE '\'`, models.TagPattern(tag))
		}
		return db
	}
}

func WithStatus(status models.TemplateStatus) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("meta_status = ?", status)
	}
}

func NotArchived() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("meta_status <> ?", models.TemplateArchived)
	}
}

// MatchingText does a case-insensitive substring match on name or description.
func MatchingText(text string) Scope {
	pattern := "%" + models.EscapeLike(strings.ToLower(text)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}

func Custom(isCustom bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("meta_is_custom = ?", isCustom)
	}
}

func ReviewedBy(userID string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("meta_reviewed_by = ?", userID)
	}
}

// ReviewedByOrCustom matches the user's own templates plus every template
// whose custom flag equals isCustom.
func ReviewedByOrCustom(userID string, isCustom bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(meta_reviewed_by = ? OR meta_is_custom = ?)", userID, isCustom)
	}
}

func NewestFirst() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("meta_last_updated DESC").Order("created_at DESC")
	}
}

func OrderedByName() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}
}

func Paginate(limit, offset int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}
