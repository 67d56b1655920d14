package services

import (
	"context"
	"sort"
	"strings"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/render"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

type GenerateAgreementInput struct {
	TemplateID         string                     `json:"templateId" binding:"required"`
	Sections           []SectionInput             `json:"sections" binding:"dive"`
	SignatureLocations []models.SignatureLocation `json:"signatureLocations" binding:"dive"`
}

type AgreementService struct {
	templates  *TemplateService
	generator  *GeneratorService
	agreements *store.AgreementStore
	renderer   *render.Renderer
	logger     *zap.Logger
	metrics    *metrics.MetricsCollector
}

func NewAgreementService(
	templates *TemplateService,
	generator *GeneratorService,
	agreements *store.AgreementStore,
	renderer *render.Renderer,
	logger *zap.Logger,
	metrics *metrics.MetricsCollector,
) *AgreementService {
	return &AgreementService{
		templates:  templates,
		generator:  generator,
		agreements: agreements,
		renderer:   renderer,
		logger:     logger.With(zap.String("service", "agreement_service")),
		metrics:    metrics,
	}
}

// GenerateAgreement validates the input against the template, generates
// every template section concurrently and persists the assembled agreement.
// Nothing is stored unless every section generates.
func (as *AgreementService) GenerateAgreement(ctx context.Context, in GenerateAgreementInput, userID string) (*models.Agreement, error) {
	t, err := as.templates.GetTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	if err := ValidateInput(t, in.Sections); err != nil {
		as.logger.Info("Agreement input rejected", zap.String("template_id", t.TemplateID), zap.Error(err))
		return nil, err
	}

	templateSections := t.SectionList()
	sort.SliceStable(templateSections, func(i, j int) bool {
		return templateSections[i].Order < templateSections[j].Order
	})

	supplied := indexSections(in.Sections)
	bindings := make([]*Variables, len(templateSections))
	for i, section := range templateSections {
		if vars, ok := supplied[section.ID]; ok {
			bindings[i] = vars
		} else {
			bindings[i] = NewVariables()
		}
	}

	// Siblings are not cancelled when one section fails; their results are
	// discarded.
	contents := make([]string, len(templateSections))
	var g errgroup.Group
	for i := range templateSections {
		g.Go(func() error {
			text, err := as.generator.Generate(ctx, templateSections[i], bindings[i])
			if err != nil {
				return err
			}
			contents[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.IncrementCounter("agreement.generate", "failure") })
		return nil, err
	}

	sections := make([]models.AgreementSection, len(templateSections))
	views := make([]render.Section, len(templateSections))
	for i, section := range templateSections {
		vars := make([]models.AgreementVariable, 0, bindings[i].Len())
		bindings[i].Each(func(key, value string) {
			vars = append(vars, models.AgreementVariable{ID: key, Value: value})
		})
		sections[i] = models.AgreementSection{
			ID:        section.ID,
			Title:     section.Title,
			Content:   contents[i],
			Variables: vars,
		}
		views[i] = render.Section{ID: section.ID, Title: section.Title, Content: contents[i]}
	}

	locations := in.SignatureLocations
	if len(locations) == 0 {
		locations = t.SignatureLocationList()
	}
	stamped := make([]models.SignatureLocation, len(locations))
	for i, loc := range locations {
		loc.Status = models.SignaturePending
		loc.SignedAt = nil
		if loc.Page == "" {
			loc.Page = models.PageLast
		}
		stamped[i] = loc
	}

	html, err := as.renderer.Render(render.Document{
		Name:         t.Name,
		Version:      t.Version,
		Jurisdiction: t.Metadata.Jurisdiction,
		Sections:     views,
		Signatures:   stamped,
	})
	if err != nil {
		return nil, err
	}

	agreement := &models.Agreement{
		UserID:     userID,
		TemplateID: t.TemplateID,
		Name:       t.Name,
		Version:    t.Version,
		Metadata: models.AgreementMetadata{
			Jurisdiction: t.Metadata.Jurisdiction,
			Status:       models.AgreementGenerated,
		},
		Sections:           datatypes.NewJSONType(sections),
		SignatureLocations: datatypes.NewJSONType(stamped),
		HTMLContent:        html,
	}
	if err := as.agreements.Create(ctx, agreement); err != nil {
		return nil, err
	}

	collectMetrics(as.metrics, func(m *metrics.MetricsCollector) {
		m.IncrementCounter("agreement.generate", "success")
		m.RecordAgreementStatus(string(models.AgreementGenerated))
		m.ObserveSize(len(html))
	})
	as.logger.Info("Agreement generated",
		zap.String("agreement_id", agreement.ID),
		zap.String("template_id", t.TemplateID),
		zap.String("user_id", userID),
		zap.Int("sections", len(sections)),
	)
	return agreement, nil
}

func (as *AgreementService) GetAgreement(ctx context.Context, id string) (*models.Agreement, error) {
	a, err := as.agreements.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "agreement "+id)
	}
	return a, nil
}

func (as *AgreementService) ListAgreements(ctx context.Context) ([]models.Agreement, error) {
	return as.agreements.List(ctx)
}

func (as *AgreementService) ListUserAgreements(ctx context.Context, userID string) ([]models.Agreement, error) {
	return as.agreements.ListByUser(ctx, userID)
}

// UpdateStatus overwrites the status. Any known status may follow any other.
func (as *AgreementService) UpdateStatus(ctx context.Context, id, status string) (*models.Agreement, error) {
	s := models.AgreementStatus(strings.ToLower(strings.TrimSpace(status)))
	if !s.Valid() {
		return nil, invalidf("unknown agreement status %q", status)
	}
	if err := as.agreements.UpdateStatus(ctx, id, s); err != nil {
		return nil, storeErr(err, "agreement "+id)
	}
	collectMetrics(as.metrics, func(m *metrics.MetricsCollector) { m.RecordAgreementStatus(string(s)) })
	return as.GetAgreement(ctx, id)
}

func (as *AgreementService) DeleteAgreement(ctx context.Context, id string) error {
	if err := as.agreements.Delete(ctx, id); err != nil {
		return storeErr(err, "agreement "+id)
	}
	as.logger.Info("Agreement deleted", zap.String("agreement_id", id))
	return nil
}
