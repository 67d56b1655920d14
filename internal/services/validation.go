package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hallelx2/legal-ai-backend/internal/db/models"
)

type SectionInput struct {
	SectionID string          `json:"sectionId" binding:"required"`
	Variables []VariableInput `json:"variables" binding:"dive"`
}

type VariableInput struct {
	ID    string `json:"id" binding:"required"`
	Value string `json:"value"`
}

// ValidateInput checks submitted sections against the template. Only required
// sections and the required variables inside them are checked: they must be
// present, non-empty and satisfy their validation rules. Optional sections and
// variables pass as submitted. A repeated section or variable id is resolved
// to its first submission.
func ValidateInput(t *models.Template, sections []SectionInput) error {
	for _, section := range t.SectionList() {
		if !section.Required {
			continue
		}
		in, ok := firstSection(sections, section.ID)
		if !ok {
			return invalidf("Required section %s is missing", section.ID)
		}

		for _, variable := range section.Variables {
			if !variable.Required {
				continue
			}
			value, present := firstValue(in.Variables, variable.ID)
			if !present || value == "" {
				return invalidf("Required variable %s is missing in section %s", variable.ID, section.ID)
			}
			if err := checkValue(variable, value); err != nil {
				return invalidf("Variable %s in section %s %s", variable.ID, section.ID, err.Error())
			}
		}
	}
	return nil
}

func firstSection(sections []SectionInput, id string) (SectionInput, bool) {
	for _, s := range sections {
		if s.SectionID == id {
			return s, true
		}
	}
	return SectionInput{}, false
}

func firstValue(vars []VariableInput, id string) (string, bool) {
	for _, v := range vars {
		if v.ID == id {
			return v.Value, true
		}
	}
	return "", false
}

// indexSections binds each submitted section to its variables for generation.
// A section id submitted twice keeps the first submission; inside a section a
// repeated variable id keeps its last value.
func indexSections(sections []SectionInput) map[string]*Variables {
	out := make(map[string]*Variables, len(sections))
	for _, s := range sections {
		if _, seen := out[s.SectionID]; seen {
			continue
		}
		vars := NewVariables()
		for _, v := range s.Variables {
			vars.Set(v.ID, v.Value)
		}
		out[s.SectionID] = vars
	}
	return out
}

func checkValue(variable models.TemplateVariable, raw string) error {
	rules := variable.Validation
	if rules == nil {
		return nil
	}

	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			return fmt.Errorf("has an invalid pattern in its template")
		}
		if !re.MatchString(raw) {
			return fmt.Errorf("does not match pattern %s", rules.Pattern)
		}
	}

	if len(rules.Options) > 0 {
		found := false
		for _, option := range rules.Options {
			if raw == option {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("must be one of %s", strings.Join(rules.Options, ", "))
		}
	}

	if rules.Min == nil && rules.Max == nil {
		return nil
	}
	if variable.Type == models.VariableNumber {
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		return checkRange(n, rules)
	}
	// min and max bound the length of anything that is not a number
	return checkRange(float64(len([]rune(raw))), rules)
}

func checkRange(n float64, rules *models.VariableValidation) error {
	if rules.Min != nil && n < *rules.Min {
		return fmt.Errorf("must be at least %s", strconv.FormatFloat(*rules.Min, 'f', -1, 64))
	}
	if rules.Max != nil && n > *rules.Max {
		return fmt.Errorf("must be at most %s", strconv.FormatFloat(*rules.Max, 'f', -1, 64))
	}
	return nil
}
