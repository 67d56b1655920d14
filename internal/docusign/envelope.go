package docusign

import (
	"encoding/base64"
	"strconv"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
)

type EnvelopeDefinition struct {
	EmailSubject string     `json:"emailSubject"`
	Documents    []Document `json:"documents"`
	Recipients   Recipients `json:"recipients"`
	Status       string     `json:"status"`
}

type Document struct {
	DocumentBase64 string `json:"documentBase64"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension"`
	DocumentID     string `json:"documentId"`
}

type Recipients struct {
	Signers []Signer `json:"signers"`
}

type Signer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"`
	Tabs         Tabs   `json:"tabs"`
}

type Tabs struct {
	SignHereTabs []SignHere `json:"signHereTabs"`
}

type SignHere struct {
	DocumentID string `json:"documentId"`
	PageNumber string `json:"pageNumber"`
	XPosition  string `json:"xPosition"`
	YPosition  string `json:"yPosition"`
}

const (
	documentID = "1"
	// HTML documents are converted by DocuSign; the signature block follows
	// the body, so "last" lands on the second page.
	firstPage = "1"
	lastPage  = "2"
)

// BuildEnvelope makes a ready-to-send envelope with one signer per location.
// Signers are routed in location order.
func BuildEnvelope(name string, html []byte, locations []models.SignatureLocation) EnvelopeDefinition {
	signers := make([]Signer, len(locations))
	for i, loc := range locations {
		page := lastPage
		if loc.Page == models.PageFirst {
			page = firstPage
		}
		order := strconv.Itoa(i + 1)
		signers[i] = Signer{
			Email:        loc.Email,
			Name:         loc.Role,
			RecipientID:  order,
			RoutingOrder: order,
			Tabs: Tabs{SignHereTabs: []SignHere{{
				DocumentID: documentID,
				PageNumber: page,
				XPosition:  strconv.FormatFloat(loc.X, 'f', 0, 64),
				YPosition:  strconv.FormatFloat(loc.Y, 'f', 0, 64),
			}}},
		}
	}

	return EnvelopeDefinition{
		EmailSubject: "Please sign: " + name,
		Documents: []Document{{
			DocumentBase64: base64.StdEncoding.EncodeToString(html),
			Name:           name,
			FileExtension:  "html",
			DocumentID:     documentID,
		}},
		Recipients: Recipients{Signers: signers},
		Status:     "sent",
	}
}
