package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/hallelx2/legal-ai-backend/internal/db"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/hallelx2/legal-ai-backend/internal/render"
	"github.com/hallelx2/legal-ai-backend/internal/store"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeGenerator answers every prompt with its first line unless fail says
// otherwise. It is safe for concurrent use.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	fail    func(prompt string) error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.fail != nil {
		if err := f.fail(prompt); err != nil {
			return "", err
		}
	}
	return "Generated: " + strings.SplitN(prompt, "\n", 2)[0], nil
}

func (f *fakeGenerator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type testEnv struct {
	db         *gorm.DB
	templates  *TemplateService
	generator  *GeneratorService
	agreements *AgreementService
	store      *store.AgreementStore
	llm        *fakeGenerator
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.OpenMemory(zap.NewNop())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	return database
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	database := newTestDB(t)

	fake := &fakeGenerator{}
	templates := NewTemplateService(store.NewTemplateStore(database, nil, log), log, nil)
	generator := NewGeneratorService(templates, fake, log, nil)
	agreementStore := store.NewAgreementStore(database, log)
	agreements := NewAgreementService(templates, generator, agreementStore, render.New(false), log, nil)

	return &testEnv{
		db:         database,
		templates:  templates,
		generator:  generator,
		agreements: agreements,
		store:      agreementStore,
		llm:        fake,
	}
}

func (e *testEnv) seed(t *testing.T, tpl *models.Template) *models.Template {
	t.Helper()
	if _, err := e.templates.Seed(context.Background(), []models.Template{*tpl}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	stored, err := e.templates.GetTemplate(context.Background(), tpl.TemplateID)
	if err != nil {
		t.Fatalf("load seeded template: %v", err)
	}
	return stored
}

func (e *testEnv) agreementCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Agreement{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

// sampleTemplate has one required section A with required variable v1 and
// one optional section B.
func sampleTemplate() *models.Template {
	return &models.Template{
		TemplateID:  "sample",
		Name:        "Sample Agreement",
		Description: "Used in tests",
		Category:    models.CategoryBusiness,
		Sections: datatypes.NewJSONType([]models.TemplateSection{
			{
				ID: "A", Title: "Section A", Required: true, Order: 1, AIPrompt: "Write section A.",
				Variables: []models.TemplateVariable{
					{ID: "v1", Name: "V1", Type: models.VariableString, Required: true},
					{ID: "v2", Name: "V2", Type: models.VariableString},
				},
			},
			{
				ID: "B", Title: "Section B", Order: 2, AIPrompt: "Write section B.",
				Variables: []models.TemplateVariable{
					{ID: "b1", Name: "B1", Type: models.VariableString, Required: true},
				},
			},
		}),
		DefaultSignatureLocations: datatypes.NewJSONType([]models.SignatureLocation{
			{Role: "Client", Email: "client@example.com", Page: models.PageLast, X: 100, Y: 600, Required: true},
		}),
		Metadata: models.TemplateMetadata{Jurisdiction: "California", Tags: models.TagList{"sample"}},
	}
}

func strPtr(s string) *string { return &s }
