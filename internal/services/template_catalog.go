package services

import (
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"gorm.io/datatypes"
)

type catalogEntry struct {
	id          string
	name        string
	description string
	category    models.TemplateCategory
	industry    string
	tags        []string
	sections    []models.TemplateSection
	signatures  []models.SignatureLocation
}

var catalog = []catalogEntry{
	{"service-agreement", "Professional Services Agreement", "Standard agreement for professional services", models.CategoryBusiness, "Professional Services", []string{"services", "professional", "contract"}, serviceAgreementSections, twoPartySignatures},
	{"nda", "Non-Disclosure Agreement", "Confidentiality agreement to protect sensitive information", models.CategoryBusiness, "All", []string{"confidential", "legal", "protection"}, ndaSections, ndaSignatures},
	{"partnership-agreement", "Business Partnership Agreement", "Comprehensive agreement for business partnerships", models.CategoryBusiness, "Business", []string{"partnership", "business", "collaboration"}, nil, nil},
	{"vendor-contract", "Vendor Supply Agreement", "Contract for goods or services between a business and vendor", models.CategoryBusiness, "Procurement", []string{"vendor", "supply", "procurement"}, nil, nil},
	{"employment-contract", "Full-Time Employment Agreement", "Comprehensive employment contract for full-time employees", models.CategoryEmployment, "Human Resources", []string{"employment", "full-time", "hiring"}, nil, nil},
	{"contractor-agreement", "Independent Contractor Agreement", "Contract for engaging independent contractors", models.CategoryEmployment, "Freelance", []string{"contractor", "freelance", "temporary"}, nil, nil},
	{"internship-agreement", "Internship Agreement", "Contract for internship positions", models.CategoryEmployment, "Education", []string{"internship", "training", "learning"}, nil, nil},
	{"lease-agreement", "Commercial Lease Agreement", "Lease contract for commercial property", models.CategoryRealEstate, "Real Estate", []string{"lease", "commercial", "property"}, nil, nil},
	{"residential-lease", "Residential Lease Agreement", "Standard lease agreement for residential properties", models.CategoryRealEstate, "Real Estate", []string{"lease", "residential", "housing"}, nil, nil},
	{"licensing-agreement", "Intellectual Property Licensing Agreement", "Agreement for licensing intellectual property", models.CategoryIntellectualProperty, "Intellectual Property", []string{"licensing", "ip", "copyright"}, nil, nil},
	{"trademark-assignment", "Trademark Assignment Agreement", "Agreement for transferring trademark ownership", models.CategoryIntellectualProperty, "Intellectual Property", []string{"trademark", "ip", "transfer"}, nil, nil},
	{"loan-agreement", "Loan Agreement", "Comprehensive loan contract", models.CategoryFinancial, "Finance", []string{"loan", "finance", "credit"}, nil, nil},
	{"investment-contract", "Investment Agreement", "Contract for investment terms and conditions", models.CategoryFinancial, "Finance", []string{"investment", "finance", "capital"}, nil, nil},
	{"patient-consent", "Patient Consent Form", "Medical consent and treatment authorization", models.CategoryHealthcare, "Healthcare", []string{"medical", "consent", "treatment"}, nil, nil},
	{"telemedicine-agreement", "Telemedicine Service Agreement", "Contract for remote medical consultation services", models.CategoryHealthcare, "Telehealth", []string{"telemedicine", "remote", "healthcare"}, nil, nil},
	{"software-development-contract", "Software Development Agreement", "Contract for custom software development services", models.CategoryTechnology, "Technology", []string{"software", "development", "tech"}, nil, nil},
	{"saas-terms-of-service", "SaaS Terms of Service", "Standard terms for Software as a Service platforms", models.CategoryTechnology, "Technology", []string{"saas", "software", "service"}, nil, nil},
	{"research-collaboration-agreement", "Research Collaboration Agreement", "Contract for joint research initiatives", models.CategoryAcademic, "Academia", []string{"research", "collaboration", "academic"}, nil, nil},
	{"publication-rights-agreement", "Academic Publication Rights Agreement", "Terms for publishing research and academic work", models.CategoryAcademic, "Academia", []string{"publication", "research", "rights"}, nil, nil},
	{"event-sponsorship-agreement", "Event Sponsorship Agreement", "Contract for event sponsorship and marketing", models.CategoryMedia, "Events", []string{"sponsorship", "event", "marketing"}, nil, nil},
	{"media-production-contract", "Media Production Agreement", "Contract for film, video, or media production", models.CategoryMedia, "Media", []string{"production", "media", "creative"}, nil, nil},
}

var twoPartySignatures = []models.SignatureLocation{
	{Role: "Provider", Email: "provider@example.com", Page: models.PageLast, X: 72, Y: 620, Required: true},
	{Role: "Client", Email: "client@example.com", Page: models.PageLast, X: 320, Y: 620, Required: true},
}

var ndaSignatures = []models.SignatureLocation{
	{Role: "Disclosing Party", Email: "discloser@example.com", Page: models.PageLast, X: 72, Y: 620, Required: true},
	{Role: "Receiving Party", Email: "recipient@example.com", Page: models.PageLast, X: 320, Y: 620, Required: true},
}

var serviceAgreementSections = []models.TemplateSection{
	{
		ID: "parties", Title: "Parties", Required: true, Order: 1,
		AIPrompt: "Draft the parties clause of a professional services agreement identifying the provider and the client with their addresses.",
		Variables: []models.TemplateVariable{
			{ID: "providerName", Name: "Provider name", Type: models.VariableString, Required: true},
			{ID: "clientName", Name: "Client name", Type: models.VariableString, Required: true},
			{ID: "effectiveDate", Name: "Effective date", Type: models.VariableDate, Required: true},
		},
	},
	{
		ID: "scope", Title: "Scope of Services", Required: true, Order: 2,
		AIPrompt: "Draft the scope of services clause describing the services the provider will perform and the deliverables.",
		Variables: []models.TemplateVariable{
			{ID: "services", Name: "Services", Type: models.VariableString, Required: true, Description: "Plain description of the services"},
		},
	},
	{
		ID: "compensation", Title: "Compensation", Required: true, Order: 3,
		AIPrompt: "Draft the compensation and payment terms clause including fees, invoicing and late payment.",
		Variables: []models.TemplateVariable{
			{ID: "fee", Name: "Fee", Type: models.VariableNumber, Required: true, Validation: &models.VariableValidation{Min: float64Ptr(0)}},
			{ID: "paymentTerms", Name: "Payment terms", Type: models.VariableString, Required: false},
		},
	},
	{
		ID: "termination", Title: "Term and Termination", Required: false, Order: 4,
		AIPrompt: "Draft the term and termination clause including notice periods.",
		Variables: []models.TemplateVariable{
			{ID: "noticeDays", Name: "Notice period in days", Type: models.VariableNumber, Required: false},
		},
	},
}

var ndaSections = []models.TemplateSection{
	{
		ID: "parties", Title: "Parties", Required: true, Order: 1,
		AIPrompt: "Draft the parties clause of a non-disclosure agreement naming the disclosing and receiving parties.",
		Variables: []models.TemplateVariable{
			{ID: "disclosingParty", Name: "Disclosing party", Type: models.VariableString, Required: true},
			{ID: "receivingParty", Name: "Receiving party", Type: models.VariableString, Required: true},
		},
	},
	{
		ID: "confidential-information", Title: "Confidential Information", Required: true, Order: 2,
		AIPrompt: "Define confidential information and its exclusions for a non-disclosure agreement.",
		Variables: []models.TemplateVariable{
			{ID: "purpose", Name: "Purpose of disclosure", Type: models.VariableString, Required: true},
		},
	},
	{
		ID: "term", Title: "Term", Required: false, Order: 3,
		AIPrompt: "Draft the duration of the confidentiality obligations.",
		Variables: []models.TemplateVariable{
			{ID: "years", Name: "Years", Type: models.VariableNumber, Required: false, Validation: &models.VariableValidation{Min: float64Ptr(1), Max: float64Ptr(10)}},
		},
	},
}

func float64Ptr(v float64) *float64 {
	return &v
}

// PredefinedTemplates returns fresh records for the built-in catalogue.
func PredefinedTemplates() []models.Template {
	out := make([]models.Template, 0, len(catalog))
	for _, entry := range catalog {
		sections := cloneSections(entry.sections)
		signatures := append([]models.SignatureLocation{}, entry.signatures...)

		out = append(out, models.Template{
			TemplateID:                entry.id,
			Name:                      entry.name,
			Description:               entry.description,
			Category:                  entry.category,
			Sections:                  datatypes.NewJSONType(sections),
			DefaultSignatureLocations: datatypes.NewJSONType(signatures),
			Metadata: models.TemplateMetadata{
				Industry:     entry.industry,
				Jurisdiction: "General",
				Tags:         append(models.TagList{}, entry.tags...),
			},
		})
	}
	return out
}
