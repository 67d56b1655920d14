package render

import (
	"strings"
	"testing"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
)

func sampleDocument(content string) Document {
	return Document{
		Name:         "Mutual NDA",
		Version:      "1.2.0",
		Jurisdiction: "Delaware",
		Sections: []Section{
			{ID: "parties", Title: "Parties", Content: content},
		},
		Signatures: []models.SignatureLocation{
			{Role: "Discloser", Email: "a@example.com", X: 72, Y: 620.5, Required: true},
			{Role: "Witness", Email: "w@example.com", X: 320, Y: 620},
		},
	}
}

func TestRenderStructure(t *testing.T) {
	out, err := New(false).Render(sampleDocument("This Agreement is made by **Acme**.\n\n- one\n- two"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<div class="agreement-container">`,
		"<h1>Mutual NDA</h1>",
		"<p>Version: 1.2.0</p>",
		"<p>Jurisdiction: Delaware</p>",
		`<div class="section" data-section-id="parties">`,
		"<h2>Parties</h2>",
		"<strong>Acme</strong>",
		"<li>one</li>",
		`<div class="signature-section">`,
		`style="left: 72px; top: 620.5px;"`,
		"Discloser (a@example.com) (Required)",
		"Witness (w@example.com) (Optional)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderEscapesMetadata(t *testing.T) {
	doc := sampleDocument("text")
	doc.Name = `<script>alert(1)</script>`
	doc.Signatures[0].Email = `"><img src=x>`

	out, err := New(false).Render(doc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("agreement name was not escaped")
	}
	if strings.Contains(out, "<img src=x>") {
		t.Error("signature email was not escaped")
	}
}

func TestRawHTMLInSections(t *testing.T) {
	content := "Intro\n\n<div class=\"clause\">kept?</div>\n"

	safe, err := New(false).Render(sampleDocument(content))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(safe, `<div class="clause">`) {
		t.Error("raw html should be dropped by default")
	}

	raw, err := New(true).Render(sampleDocument(content))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw, `<div class="clause">kept?</div>`) {
		t.Error("raw html should be kept when allowed")
	}
}
