package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AgreementStatus string

const (
	AgreementDraft            AgreementStatus = "draft"
	AgreementGenerated        AgreementStatus = "generated"
	AgreementSentForSignature AgreementStatus = "sent_for_signature"
	AgreementSigned           AgreementStatus = "signed"
	AgreementRejected         AgreementStatus = "rejected"
)

func (s AgreementStatus) Valid() bool {
	switch s {
	case AgreementDraft, AgreementGenerated, AgreementSentForSignature, AgreementSigned, AgreementRejected:
		return true
	}
	return false
}

type AgreementVariable struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type AgreementSection struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	Variables []AgreementVariable `json:"variables"`
}

type AgreementMetadata struct {
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Status       AgreementStatus `json:"status" gorm:"index;not null"`
}

// Agreement is the assembled document. Sections are a denormalized copy of
// the template at generation time.
type Agreement struct {
	ID                 string                                 `json:"id" gorm:"primaryKey;size:36"`
	UserID             string                                 `json:"userId" gorm:"index;not null"`
	TemplateID         string                                 `json:"templateId" gorm:"index;not null"`
	Name               string                                 `json:"name" gorm:"not null"`
	Version            string                                 `json:"version"`
	Metadata           AgreementMetadata                      `json:"metadata" gorm:"embedded;embeddedPrefix:meta_"`
	Sections           datatypes.JSONType[[]AgreementSection]  `json:"sections"`
	SignatureLocations datatypes.JSONType[[]SignatureLocation] `json:"signatureLocations"`
	HTMLContent        string                                 `json:"htmlContent" gorm:"type:text"`
	EnvelopeID         string                                 `json:"envelopeId,omitempty" gorm:"index"`
	EnvelopeStatus     string                                 `json:"envelopeStatus,omitempty"`
	CreatedAt          time.Time                              `json:"createdAt"`
	UpdatedAt          time.Time                              `json:"updatedAt"`
}

func (a *Agreement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
