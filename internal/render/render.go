package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/agreement.html.tmpl
var templateFS embed.FS

var agreementTemplate = template.Must(template.ParseFS(templateFS, "templates/agreement.html.tmpl"))

type Section struct {
	ID      string
	Title   string
	Content string
}

type Document struct {
	Name         string
	Version      string
	Jurisdiction string
	Sections     []Section
	Signatures   []models.SignatureLocation
}

// Renderer turns an assembled agreement into a standalone HTML page. Metadata
// is always escaped. Section content is markdown; raw HTML inside it is
// dropped unless the renderer was built with allowRawHTML.
type Renderer struct {
	markdown goldmark.Markdown
}

func New(allowRawHTML bool) *Renderer {
	opts := []renderer.Option{html.WithHardWraps()}
	if allowRawHTML {
		opts = append(opts, html.WithUnsafe())
	}
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
			goldmark.WithRendererOptions(opts...),
		),
	}
}

type sectionView struct {
	ID    string
	Title string
	Body  template.HTML
}

type signatureView struct {
	Role     string
	Email    string
	X        string
	Y        string
	Required bool
}

func (r *Renderer) Render(doc Document) (string, error) {
	sections := make([]sectionView, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		body, err := r.Markdown(s.Content)
		if err != nil {
			return "", fmt.Errorf("render section %s: %w", s.ID, err)
		}
		sections = append(sections, sectionView{ID: s.ID, Title: s.Title, Body: body})
	}

	signatures := make([]signatureView, 0, len(doc.Signatures))
	for _, loc := range doc.Signatures {
		signatures = append(signatures, signatureView{
			Role:     loc.Role,
			Email:    loc.Email,
			X:        strconv.FormatFloat(loc.X, 'f', -1, 64),
			Y:        strconv.FormatFloat(loc.Y, 'f', -1, 64),
			Required: loc.Required,
		})
	}

	var buf bytes.Buffer
	err := agreementTemplate.Execute(&buf, struct {
		Name         string
		Version      string
		Jurisdiction string
		Sections     []sectionView
		Signatures   []signatureView
	}{doc.Name, doc.Version, doc.Jurisdiction, sections, signatures})
	if err != nil {
		return "", fmt.Errorf("render agreement: %w", err)
	}
	return buf.String(), nil
}

// Markdown converts one section body to HTML.
func (r *Renderer) Markdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
