package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	initialVersion     = "1.0.0"
)

type TemplateService struct {
	templates *store.TemplateStore
	logger    *zap.Logger
	metrics   *metrics.MetricsCollector
}

type CustomTemplateMetadata struct {
	Industry     string   `json:"industry"`
	Jurisdiction string   `json:"jurisdiction"`
	Tags         []string `json:"tags"`
}

type CreateCustomTemplateInput struct {
	BaseTemplateID            string                     `json:"baseTemplateId"`
	Name                      string                     `json:"name" binding:"required"`
	Description               string                     `json:"description"`
	CustomSections            []SectionPatch             `json:"customSections" binding:"dive"`
	DefaultSignatureLocations []models.SignatureLocation `json:"defaultSignatureLocations" binding:"dive"`
	Metadata                  CustomTemplateMetadata     `json:"metadata"`
	Customization             *models.Customization      `json:"customization"`
}

type VersionTemplateInput struct {
	Type           string          `json:"type" binding:"required"`
	Changes        string          `json:"changes"`
	SectionChanges []SectionChange `json:"sectionChanges" binding:"dive"`
}

type TemplateSearch struct {
	Category   string
	Tags       []string
	Status     string
	SearchText string
	Limit      int
	Offset     int
}

func NewTemplateService(templates *store.TemplateStore, logger *zap.Logger, metrics *metrics.MetricsCollector) *TemplateService {
	return &TemplateService{
		templates: templates,
		logger:    logger.With(zap.String("service", "template_service")),
		metrics:   metrics,
	}
}

func (ts *TemplateService) GetTemplate(ctx context.Context, templateID string) (*models.Template, error) {
	t, err := ts.templates.Current(ctx, templateID)
	if err != nil {
		return nil, storeErr(err, "template "+templateID)
	}
	return t, nil
}

func (ts *TemplateService) History(ctx context.Context, templateID string) ([]models.Template, error) {
	records, err := ts.templates.History(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, notFoundf("template %s", templateID)
	}
	return records, nil
}

func (ts *TemplateService) ByCategory(ctx context.Context, category string) ([]models.Template, error) {
	c := models.TemplateCategory(strings.ToUpper(category))
	if !c.Valid() {
		return nil, invalidf("unknown template category %q", category)
	}
	return ts.templates.Find(ctx, store.WithCategory(c), store.NotArchived(), store.NewestFirst())
}

func (ts *TemplateService) Predefined(ctx context.Context) ([]models.Template, error) {
	return ts.templates.Find(ctx, store.Custom(false), store.NotArchived(), store.OrderedByName())
}

// UserTemplates lists templates the user reviewed (created or versioned).
func (ts *TemplateService) UserTemplates(ctx context.Context, userID string) ([]models.Template, error) {
	return ts.templates.Find(ctx, store.ReviewedBy(userID), store.NotArchived(), store.NewestFirst())
}

// AllForUser is the user's own templates plus the predefined catalogue.
func (ts *TemplateService) AllForUser(ctx context.Context, userID string) ([]models.Template, error) {
	return ts.templates.Find(ctx, store.ReviewedByOrCustom(userID, false), store.NotArchived(), store.NewestFirst())
}

// VisibleTo is the user's own templates plus every custom template.
func (ts *TemplateService) VisibleTo(ctx context.Context, userID string) ([]models.Template, error) {
	return ts.templates.Find(ctx, store.ReviewedByOrCustom(userID, true), store.NotArchived(), store.NewestFirst())
}

func (ts *TemplateService) Search(ctx context.Context, q TemplateSearch) ([]models.Template, error) {
	scopes := []store.Scope{}

	if q.Category != "" {
		c := models.TemplateCategory(strings.ToUpper(q.Category))
		if !c.Valid() {
			return nil, invalidf("unknown template category %q", q.Category)
		}
		scopes = append(scopes, store.WithCategory(c))
	}
	if tags := cleanTags(q.Tags); len(tags) > 0 {
		scopes = append(scopes, store.WithAllTags(tags))
	}
	if q.Status != "" {
		status := models.TemplateStatus(strings.ToLower(q.Status))
		if !status.Valid() {
			return nil, invalidf("unknown template status %q", q.Status)
		}
		scopes = append(scopes, store.WithStatus(status))
	} else {
		scopes = append(scopes, store.NotArchived())
	}
	if text := strings.TrimSpace(q.SearchText); text != "" {
		scopes = append(scopes, store.MatchingText(text))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	scopes = append(scopes, store.NewestFirst(), store.Paginate(limit, offset))

	return ts.templates.Find(ctx, scopes...)
}

// CreateCustomTemplate derives a user template, optionally from a base
// template. Custom templates are published immediately.
func (ts *TemplateService) CreateCustomTemplate(ctx context.Context, in CreateCustomTemplateInput, userID string) (*models.Template, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalidf("template name is required")
	}
	tags := cleanTags(in.Metadata.Tags)
	for _, tag := range tags {
		if strings.Contains(tag, ",") {
			return nil, invalidf("tag %q must not contain a comma", tag)
		}
	}

	var (
		sections   []models.TemplateSection
		signatures []models.SignatureLocation
		parentID   string
	)
	if in.BaseTemplateID != "" {
		base, err := ts.GetTemplate(ctx, in.BaseTemplateID)
		if err != nil {
			return nil, err
		}
		sections = MergeCustomSections(base.SectionList(), in.CustomSections)
		signatures = base.SignatureLocationList()
		parentID = base.TemplateID
	} else {
		sections = MergeCustomSections(nil, in.CustomSections)
	}
	if len(in.DefaultSignatureLocations) > 0 {
		signatures = in.DefaultSignatureLocations
	}
	if signatures == nil {
		signatures = []models.SignatureLocation{}
	}

	t := &models.Template{
		TemplateID:                "custom-" + uuid.NewString(),
		Name:                      in.Name,
		Description:               in.Description,
		Version:                   initialVersion,
		Category:                  models.CategoryCustom,
		Sections:                  datatypes.NewJSONType(sections),
		DefaultSignatureLocations: datatypes.NewJSONType(signatures),
		Metadata: models.TemplateMetadata{
			Industry:         in.Metadata.Industry,
			Jurisdiction:     in.Metadata.Jurisdiction,
			LastUpdated:      time.Now().UTC(),
			ReviewedBy:       userID,
			IsCustom:         true,
			ParentTemplateID: parentID,
			Tags:             models.TagList(tags),
			Status:           models.TemplatePublished,
		},
		Customization: datatypes.NewJSONType(in.Customization),
	}

	if err := ts.templates.Create(ctx, t); err != nil {
		collectMetrics(ts.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("template.create_custom", "failure") })
		return nil, err
	}
	collectMetrics(ts.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("template.create_custom", "success") })

	ts.logger.Info("Custom template created",
		zap.String("template_id", t.TemplateID),
		zap.String("parent_id", parentID),
		zap.String("user_id", userID),
		zap.Int("sections", len(sections)),
	)
	return t, nil
}

// VersionTemplate archives the current record of templateID and stores a new
// draft carrying the merged section changes and the bumped version.
func (ts *TemplateService) VersionTemplate(ctx context.Context, templateID string, in VersionTemplateInput, userID string) (*models.Template, error) {
	change, err := ParseChangeType(in.Type)
	if err != nil {
		return nil, err
	}

	current, err := ts.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	version, err := NextVersion(current.Version, change)
	if err != nil {
		return nil, err
	}

	meta := current.Metadata
	meta.Tags = slices.Clone(current.Metadata.Tags)
	meta.Status = models.TemplateDraft
	meta.LastUpdated = time.Now().UTC()
	meta.ReviewedBy = userID
	meta.ChangeLog = in.Changes

	next := &models.Template{
		TemplateID:                current.TemplateID,
		Name:                      current.Name,
		Description:               current.Description,
		Version:                   version,
		Category:                  current.Category,
		Sections:                  datatypes.NewJSONType(MergeSectionChanges(current.SectionList(), in.SectionChanges)),
		DefaultSignatureLocations: datatypes.NewJSONType(current.SignatureLocationList()),
		Metadata:                  meta,
		Customization:             current.Customization,
	}

	if err := ts.templates.Supersede(ctx, current, next); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			ts.logger.Warn("Template version race lost", zap.String("template_id", templateID))
		}
		return nil, storeErr(err, "template "+templateID)
	}

	collectMetrics(ts.metrics, func(m *metrics.MetricsCollector) { m.RecordTemplateVersion(string(change)) })
	return next, nil
}

// Seed inserts catalogue templates that are not stored yet, matching on the
// logical id or on name plus category. It returns how many were inserted.
func (ts *TemplateService) Seed(ctx context.Context, catalogue []models.Template) (int, error) {
	inserted := 0
	for i := range catalogue {
		t := catalogue[i]

		exists, err := ts.templates.Exists(ctx, t.TemplateID, t.Name, t.Category)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		if t.Version == "" {
			t.Version = initialVersion
		}
		t.Metadata.Status = models.TemplatePublished
		t.Metadata.IsCustom = false
		t.Metadata.LastUpdated = time.Now().UTC()

		if err := ts.templates.Create(ctx, &t); err != nil {
			return inserted, err
		}
		inserted++
	}

	ts.logger.Info("Template seeding finished", zap.Int("inserted", inserted), zap.Int("catalogue", len(catalogue)))
	return inserted, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
