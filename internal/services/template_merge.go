package services

import (
	"slices"
	"strconv"
	"strings"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
)

// SectionPatch describes a custom section. Nil fields leave the matching base
// section untouched; for a new section they take the zero value.
type SectionPatch struct {
	ID          string                    `json:"id" binding:"required"`
	Title       *string                   `json:"title,omitempty"`
	Description *string                   `json:"description,omitempty"`
	Content     *string                   `json:"content,omitempty"`
	Required    *bool                     `json:"required,omitempty"`
	Order       *int                      `json:"order,omitempty"`
	AIPrompt    *string                   `json:"aiPrompt,omitempty"`
	Variables   []models.TemplateVariable `json:"variables,omitempty"`
}

// SectionChange is one entry of a version change set.
type SectionChange struct {
	SectionID   string                    `json:"sectionId" binding:"required"`
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Content     string                    `json:"content,omitempty"`
	Variables   []models.TemplateVariable `json:"variables,omitempty"`
}

type ChangeType string

const (
	ChangeMajor ChangeType = "MAJOR"
	ChangeMinor ChangeType = "MINOR"
	ChangePatch ChangeType = "PATCH"
)

func ParseChangeType(s string) (ChangeType, error) {
	switch ct := ChangeType(strings.ToUpper(strings.TrimSpace(s))); ct {
	case ChangeMajor, ChangeMinor, ChangePatch:
		return ct, nil
	}
	return "", invalidf("unknown version change type %q", s)
}

// MergeCustomSections overlays custom onto base. Matching sections take the
// custom scalar fields and get the custom variables appended; duplicates by
// variable id are kept. Unmatched custom sections are appended in order.
func MergeCustomSections(base []models.TemplateSection, custom []SectionPatch) []models.TemplateSection {
	merged := cloneSections(base)
	index := make(map[string]int, len(merged))
	for i, section := range merged {
		if _, seen := index[section.ID]; !seen {
			index[section.ID] = i
		}
	}

	for _, patch := range custom {
		if i, ok := index[patch.ID]; ok {
			merged[i] = patch.apply(merged[i])
			continue
		}
		index[patch.ID] = len(merged)
		merged = append(merged, patch.apply(models.TemplateSection{ID: patch.ID, Variables: []models.TemplateVariable{}}))
	}
	return merged
}

func (p SectionPatch) apply(section models.TemplateSection) models.TemplateSection {
	if p.Title != nil {
		section.Title = *p.Title
	}
	if p.Description != nil {
		section.Description = *p.Description
	}
	if p.Content != nil {
		section.Content = *p.Content
	}
	if p.Required != nil {
		section.Required = *p.Required
	}
	if p.Order != nil {
		section.Order = *p.Order
	}
	if p.AIPrompt != nil {
		section.AIPrompt = *p.AIPrompt
	}
	section.Variables = append(section.Variables, p.Variables...)
	return section
}

// MergeSectionChanges applies a change set. Changes naming an unknown section
// are dropped. Empty string fields are treated as absent.
func MergeSectionChanges(current []models.TemplateSection, changes []SectionChange) []models.TemplateSection {
	merged := cloneSections(current)
	for _, change := range changes {
		for i := range merged {
			if merged[i].ID != change.SectionID {
				continue
			}
			if change.Title != "" {
				merged[i].Title = change.Title
			}
			if change.Description != "" {
				merged[i].Description = change.Description
			}
			if change.Content != "" {
				merged[i].Content = change.Content
			}
			merged[i].Variables = append(merged[i].Variables, change.Variables...)
			break
		}
	}
	return merged
}

// NextVersion bumps a major.minor.patch string.
func NextVersion(version string, change ChangeType) (string, error) {
	major, minor, patch, err := parseSemver(version)
	if err != nil {
		return "", err
	}

	switch change {
	case ChangeMajor:
		major, minor, patch = major+1, 0, 0
	case ChangeMinor:
		minor, patch = minor+1, 0
	case ChangePatch:
		patch++
	default:
		return "", invalidf("unknown version change type %q", change)
	}
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(patch), nil
}

func parseSemver(version string) (int, int, int, error) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) != 3 {
		return 0, 0, 0, invalidf("version %q is not major.minor.patch", version)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, 0, 0, invalidf("version %q is not major.minor.patch", version)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

func cloneSections(sections []models.TemplateSection) []models.TemplateSection {
	out := make([]models.TemplateSection, len(sections))
	for i, section := range sections {
		out[i] = section
		out[i].Variables = slices.Clone(section.Variables)
	}
	return out
}
