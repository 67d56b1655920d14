package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TemplateStatus string

const (
	TemplateDraft     TemplateStatus = "draft"
	TemplatePublished TemplateStatus = "published"
	TemplateArchived  TemplateStatus = "archived"
)

func (s TemplateStatus) Valid() bool {
	switch s {
	case TemplateDraft, TemplatePublished, TemplateArchived:
		return true
	}
	return false
}

type TemplateCategory string

const (
	CategoryBusiness             TemplateCategory = "BUSINESS"
	CategoryEmployment           TemplateCategory = "EMPLOYMENT"
	CategoryRealEstate           TemplateCategory = "REAL_ESTATE"
	CategoryIntellectualProperty TemplateCategory = "INTELLECTUAL_PROPERTY"
	CategoryFinancial            TemplateCategory = "FINANCIAL"
	CategoryHealthcare           TemplateCategory = "HEALTHCARE"
	CategoryTechnology           TemplateCategory = "TECHNOLOGY"
	CategoryAcademic             TemplateCategory = "ACADEMIC"
	CategoryMedia                TemplateCategory = "MEDIA"
	CategoryCustom               TemplateCategory = "CUSTOM"
)

var Categories = []TemplateCategory{
	CategoryBusiness,
	CategoryEmployment,
	CategoryRealEstate,
	CategoryIntellectualProperty,
	CategoryFinancial,
	CategoryHealthcare,
	CategoryTechnology,
	CategoryAcademic,
	CategoryMedia,
	CategoryCustom,
}

func (c TemplateCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type VariableType string

const (
	VariableString  VariableType = "string"
	VariableNumber  VariableType = "number"
	VariableDate    VariableType = "date"
	VariableBoolean VariableType = "boolean"
	VariableArray   VariableType = "array"
)

type VariableValidation struct {
	Pattern string   `json:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Options []string `json:"options,omitempty"`
}

type TemplateVariable struct {
	ID          string              `json:"id" binding:"required"`
	Name        string              `json:"name"`
	Type        VariableType        `json:"type"`
	Required    bool                `json:"required"`
	Description string              `json:"description,omitempty"`
	Validation  *VariableValidation `json:"validation,omitempty"`
}

type TemplateSection struct {
	ID          string             `json:"id" binding:"required"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Content     string             `json:"content,omitempty"`
	Required    bool               `json:"required"`
	Order       int                `json:"order"`
	AIPrompt    string             `json:"aiPrompt"`
	Variables   []TemplateVariable `json:"variables"`
}

type SignaturePage string

const (
	PageFirst SignaturePage = "first"
	PageLast  SignaturePage = "last"
)

type SignatureStatus string

const (
	SignaturePending  SignatureStatus = "pending"
	SignatureSigned   SignatureStatus = "signed"
	SignatureRejected SignatureStatus = "rejected"
)

// SignatureLocation is a default slot on a template. Copied onto an agreement
// it also carries a status.
type SignatureLocation struct {
	Role     string          `json:"role" binding:"required"`
	Email    string          `json:"email" binding:"required"`
	Page     SignaturePage   `json:"page,omitempty"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Required bool            `json:"required"`
	Status   SignatureStatus `json:"status,omitempty"`
	SignedAt *time.Time      `json:"signedAt,omitempty"`
}

type Customization struct {
	AllowedSections    []string                    `json:"allowedSections,omitempty"`
	RequiredSections   []string                    `json:"requiredSections,omitempty"`
	VariableOverrides  map[string]TemplateVariable `json:"variableOverrides,omitempty"`
	AdditionalSections []TemplateSection           `json:"additionalSections,omitempty"`
}

type TemplateMetadata struct {
	Industry         string         `json:"industry,omitempty"`
	Jurisdiction     string         `json:"jurisdiction,omitempty"`
	LastUpdated      time.Time      `json:"lastUpdated" gorm:"index"`
	ReviewedBy       string         `json:"reviewedBy,omitempty" gorm:"index"`
	IsCustom         bool           `json:"isCustom" gorm:"not null;default:false"`
	ParentTemplateID string         `json:"parentTemplateId,omitempty"`
	Tags             TagList        `json:"tags"`
	Status           TemplateStatus `json:"status" gorm:"index;not null;default:'published'"`
	ChangeLog        string         `json:"changeLog,omitempty"`
}

// Template is one stored version of a logical template. Every version of a
// lineage shares TemplateID; RecordID is the storage identity.
type Template struct {
	RecordID                  string                                 `json:"recordId" gorm:"primaryKey;size:36"`
	TemplateID                string                                 `json:"id" gorm:"column:template_id;index;not null"`
	Name                      string                                 `json:"name" gorm:"not null;index"`
	Description               string                                 `json:"description"`
	Version                   string                                 `json:"version" gorm:"not null"`
	Category                  TemplateCategory                       `json:"category" gorm:"index;not null"`
	Sections                  datatypes.JSONType[[]TemplateSection]   `json:"sections"`
	DefaultSignatureLocations datatypes.JSONType[[]SignatureLocation] `json:"defaultSignatureLocations"`
	Metadata                  TemplateMetadata                       `json:"metadata" gorm:"embedded;embeddedPrefix:meta_"`
	Customization             datatypes.JSONType[*Customization]     `json:"customization"`
	CreatedAt                 time.Time                              `json:"createdAt"`
	UpdatedAt                 time.Time                              `json:"updatedAt"`
}

func (Template) TableName() string {
	return "templates"
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.RecordID == "" {
		t.RecordID = uuid.NewString()
	}
	if t.Metadata.LastUpdated.IsZero() {
		t.Metadata.LastUpdated = time.Now().UTC()
	}
	return nil
}

func (t *Template) SectionList() []TemplateSection {
	return t.Sections.Data()
}

func (t *Template) SignatureLocationList() []SignatureLocation {
	return t.DefaultSignatureLocations.Data()
}

// TagList is stored as a delimited string (",a,b,") so membership can be
// tested with LIKE on every supported database.
type TagList []string

func (TagList) GormDataType() string {
	return "text"
}

func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "", nil
	}
	for _, tag := range t {
		if strings.Contains(tag, ",") {
			return nil, fmt.Errorf("tag %q must not contain a comma", tag)
		}
	}
	return "," + strings.Join(t, ",") + ",", nil
}

func (t *TagList) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*t = TagList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return errors.New("unsupported tag list value")
	}

	list := TagList{}
	for _, tag := range strings.Split(raw, ",") {
		if tag != "" {
			list = append(list, tag)
		}
	}
	*t = list
	return nil
}

// TagPattern is the LIKE pattern matching rows tagged with tag. It expects
// the query to declare ESCAPE '\'.
func TagPattern(tag string) string {
	return "%," + EscapeLike(tag) + ",%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes the LIKE wildcards in s using backslash as the escape.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
