package services

import (
	"context"
	"strings"
	"time"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/llm"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
)

const variableBlockHeader = "\n\n Here are the information you need for this section:\n "

type GeneratorService struct {
	templates *TemplateService
	generator llm.TextGenerator
	logger    *zap.Logger
	metrics   *metrics.MetricsCollector
}

func NewGeneratorService(templates *TemplateService, generator llm.TextGenerator, logger *zap.Logger, metrics *metrics.MetricsCollector) *GeneratorService {
	return &GeneratorService{
		templates: templates,
		generator: generator,
		logger:    logger.With(zap.String("service", "generator_service")),
		metrics:   metrics,
	}
}

// GenerateSectionContent loads the template and generates one section.
func (gs *GeneratorService) GenerateSectionContent(ctx context.Context, templateID, sectionID string, vars *Variables) (string, error) {
	t, err := gs.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}

	for _, section := range t.SectionList() {
		if section.ID == sectionID {
			return gs.Generate(ctx, section, vars)
		}
	}
	return "", invalidf("Section not found or missing AI prompt")
}

// Generate sends the section prompt with its bound variables to the text
// generator and returns the text as produced.
func (gs *GeneratorService) Generate(ctx context.Context, section models.TemplateSection, vars *Variables) (string, error) {
	if strings.TrimSpace(section.AIPrompt) == "" {
		return "", invalidf("Section not found or missing AI prompt")
	}

	start := time.Now()
	text, err := gs.generator.Generate(ctx, BuildPrompt(section.AIPrompt, vars))
	elapsed := time.Since(start)
	collectMetrics(gs.metrics, func(m *metrics.MetricsCollector) { m.ObserveGeneration(err, elapsed) })

	if err != nil {
		gs.logger.Error("Section generation failed",
			zap.String("section_id", section.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", upstream("content generation", err)
	}

	gs.logger.Debug("Section generated", zap.String("section_id", section.ID), zap.Duration("elapsed", elapsed))
	return text, nil
}

// BuildPrompt appends one block per variable to the base prompt, in the
// order the variables were first set.
func BuildPrompt(base string, vars *Variables) string {
	var b strings.Builder
	b.WriteString(base)
	if vars == nil {
		return b.String()
	}
	vars.Each(func(key, value string) {
		b.WriteString(variableBlockHeader)
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	})
	return b.String()
}
