package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"gorm.io/datatypes"
)

func validInput() GenerateAgreementInput {
	return GenerateAgreementInput{
		TemplateID: "sample",
		Sections: []SectionInput{
			{SectionID: "A", Variables: []VariableInput{{ID: "v1", Value: "Acme Corp"}}},
		},
	}
}

func TestGenerateAgreement(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())

	agreement, err := env.agreements.GenerateAgreement(context.Background(), validInput(), "user-1")
	if err != nil {
		t.Fatalf("GenerateAgreement: %v", err)
	}

	if agreement.Metadata.Status != models.AgreementGenerated {
		t.Errorf("status = %s, want generated", agreement.Metadata.Status)
	}
	if agreement.UserID != "user-1" || agreement.TemplateID != "sample" || agreement.Version != "1.0.0" {
		t.Errorf("agreement identity = %+v", agreement)
	}

	sections := agreement.Sections.Data()
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want every template section", len(sections))
	}
	if sections[0].ID != "A" || sections[0].Content != "Generated: Write section A." {
		t.Errorf("section A = %+v", sections[0])
	}
	if len(sections[0].Variables) != 1 || sections[0].Variables[0].Value != "Acme Corp" {
		t.Errorf("section A variables = %+v", sections[0].Variables)
	}
	if sections[1].ID != "B" || len(sections[1].Variables) != 0 {
		t.Errorf("section B should be generated with no variables: %+v", sections[1])
	}

	for _, prompt := range env.llm.calls() {
		if strings.HasPrefix(prompt, "Write section A.") &&
			!strings.Contains(prompt, "Here are the information you need for this section:\n v1: Acme Corp\n") {
			t.Errorf("section A prompt lacks its variables: %q", prompt)
		}
		if strings.HasPrefix(prompt, "Write section B.") && prompt != "Write section B." {
			t.Errorf("section B prompt = %q", prompt)
		}
	}

	signatures := agreement.SignatureLocations.Data()
	if len(signatures) != 1 || signatures[0].Role != "Client" || signatures[0].Status != models.SignaturePending {
		t.Errorf("default signatures not applied: %+v", signatures)
	}

	for _, want := range []string{"<!DOCTYPE html>", "Sample Agreement", "Generated: Write section A.", "California"} {
		if !strings.Contains(agreement.HTMLContent, want) {
			t.Errorf("html missing %q", want)
		}
	}

	stored, err := env.agreements.GetAgreement(context.Background(), agreement.ID)
	if err != nil {
		t.Fatalf("GetAgreement: %v", err)
	}
	if stored.HTMLContent != agreement.HTMLContent {
		t.Error("stored html differs from returned html")
	}
}

func TestGenerateAgreementRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())

	tests := []struct {
		name string
		in   GenerateAgreementInput
	}{
		{"missing required section", GenerateAgreementInput{TemplateID: "sample"}},
		{"empty required variable", GenerateAgreementInput{
			TemplateID: "sample",
			Sections:   []SectionInput{{SectionID: "A", Variables: []VariableInput{{ID: "v1"}}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.agreements.GenerateAgreement(context.Background(), tt.in, "user-1")
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	if n := env.agreementCount(t); n != 0 {
		t.Fatalf("%d agreements persisted after rejected input", n)
	}
	if calls := env.llm.calls(); len(calls) != 0 {
		t.Fatalf("generator called %d times for invalid input", len(calls))
	}
}

func TestGenerateAgreementUnknownTemplate(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.agreements.GenerateAgreement(context.Background(), GenerateAgreementInput{TemplateID: "nope"}, "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGenerateAgreementSectionFailurePersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())
	env.llm.fail = func(prompt string) error {
		if strings.HasPrefix(prompt, "Write section B.") {
			return errors.New("model overloaded")
		}
		return nil
	}

	_, err := env.agreements.GenerateAgreement(context.Background(), validInput(), "user-1")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("err = %q, want the generator message embedded", err)
	}
	if n := env.agreementCount(t); n != 0 {
		t.Fatalf("%d agreements persisted after a failed section", n)
	}
}

func TestGenerateAgreementOrdersSections(t *testing.T) {
	env := newTestEnv(t)
	tpl := sampleTemplate()
	tpl.TemplateID = "ordered"
	tpl.Name = "Ordered"
	tpl.Sections = datatypes.NewJSONType([]models.TemplateSection{
		{ID: "third", Title: "Third", Order: 3, AIPrompt: "third"},
		{ID: "first", Title: "First", Order: 1, AIPrompt: "first"},
		{ID: "second", Title: "Second", Order: 2, AIPrompt: "second"},
	})
	env.seed(t, tpl)

	agreement, err := env.agreements.GenerateAgreement(context.Background(), GenerateAgreementInput{TemplateID: "ordered"}, "user-1")
	if err != nil {
		t.Fatalf("GenerateAgreement: %v", err)
	}
	var ids []string
	for _, s := range agreement.Sections.Data() {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "first,second,third" {
		t.Fatalf("section order = %v", ids)
	}
	if a, b := strings.Index(agreement.HTMLContent, "First"), strings.Index(agreement.HTMLContent, "Third"); a < 0 || b < a {
		t.Error("html sections not in order")
	}
}

func TestGenerateAgreementCallerSignatures(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())

	in := validInput()
	in.SignatureLocations = []models.SignatureLocation{
		{Role: "Vendor", Email: "vendor@example.com", Page: models.PageFirst, X: 10, Y: 20},
		{Role: "Witness", Email: "witness@example.com", X: 30, Y: 40},
	}
	agreement, err := env.agreements.GenerateAgreement(context.Background(), in, "user-1")
	if err != nil {
		t.Fatalf("GenerateAgreement: %v", err)
	}

	got := agreement.SignatureLocations.Data()
	if len(got) != 2 || got[0].Role != "Vendor" || got[0].Page != models.PageFirst {
		t.Fatalf("signatures = %+v", got)
	}
	if got[1].Page != models.PageLast {
		t.Errorf("missing page should default to last, got %q", got[1].Page)
	}
}

func TestAgreementStatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())
	ctx := context.Background()

	agreement, err := env.agreements.GenerateAgreement(ctx, validInput(), "user-1")
	if err != nil {
		t.Fatal(err)
	}

	updated, err := env.agreements.UpdateStatus(ctx, agreement.ID, "SIGNED")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Metadata.Status != models.AgreementSigned {
		t.Errorf("status = %s", updated.Metadata.Status)
	}
	if _, err := env.agreements.UpdateStatus(ctx, agreement.ID, "shredded"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown status err = %v", err)
	}
	if _, err := env.agreements.UpdateStatus(ctx, "missing", "signed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing agreement err = %v", err)
	}

	list, err := env.agreements.ListUserAgreements(ctx, "user-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListUserAgreements = %d, %v", len(list), err)
	}
	if other, _ := env.agreements.ListUserAgreements(ctx, "user-2"); len(other) != 0 {
		t.Errorf("user-2 sees %d agreements", len(other))
	}

	if err := env.agreements.DeleteAgreement(ctx, agreement.ID); err != nil {
		t.Fatalf("DeleteAgreement: %v", err)
	}
	if err := env.agreements.DeleteAgreement(ctx, agreement.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestGenerateSectionContent(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, sampleTemplate())
	ctx := context.Background()

	vars := NewVariables()
	vars.Set("b1", "value")
	text, err := env.generator.GenerateSectionContent(ctx, "sample", "B", vars)
	if err != nil {
		t.Fatalf("GenerateSectionContent: %v", err)
	}
	if text != "Generated: Write section B." {
		t.Errorf("text = %q", text)
	}

	_, err = env.generator.GenerateSectionContent(ctx, "sample", "Z", NewVariables())
	if !errors.Is(err, ErrInvalidInput) || !strings.Contains(err.Error(), "Section not found or missing AI prompt") {
		t.Errorf("unknown section err = %v", err)
	}

	_, err = env.generator.Generate(ctx, models.TemplateSection{ID: "blank"}, NewVariables())
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank prompt err = %v", err)
	}
}

func TestGenerateAgreementOptionalValuesPassThrough(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.templates.Seed(context.Background(), PredefinedTemplates()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	in := GenerateAgreementInput{
		TemplateID: "nda",
		Sections: []SectionInput{
			{SectionID: "parties", Variables: []VariableInput{{ID: "disclosingParty", Value: "Acme"}, {ID: "receivingParty", Value: "Globex"}}},
			{SectionID: "confidential-information", Variables: []VariableInput{{ID: "purpose", Value: "evaluating a merger"}}},
			{SectionID: "term", Variables: []VariableInput{{ID: "years", Value: "until terminated"}}},
		},
	}

	agreement, err := env.agreements.GenerateAgreement(context.Background(), in, "user-1")
	if err != nil {
		t.Fatalf("GenerateAgreement: %v", err)
	}
	for _, section := range agreement.Sections.Data() {
		if section.ID == "term" {
			if len(section.Variables) != 1 || section.Variables[0].Value != "until terminated" {
				t.Errorf("term variables = %+v", section.Variables)
			}
			return
		}
	}
	t.Fatal("term section missing from agreement")
}
