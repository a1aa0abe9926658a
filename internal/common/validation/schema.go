// internal/common/validation/schema.go
package validation

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"equireal-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names accepted by Validate.
const (
	SchemaProfile    = "profile"
	SchemaBasics     = "basics"
	SchemaFinancials = "financials"
	SchemaFeedback   = "feedback"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func loadSchemas() {
	compiled = make(map[string]*gojsonschema.Schema)
	for _, name := range []string{SchemaProfile, SchemaBasics, SchemaFinancials, SchemaFeedback} {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			compileErr = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks doc (a map or a JSON-tagged struct) against the named
// embedded schema. Errors are sorted by field.
func Validate(schemaName string, doc interface{}) (*ValidationResult, error) {
	compileOnce.Do(loadSchemas)
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiled[schemaName]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", schemaName, err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, toValidationError(re))
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

func toValidationError(re gojsonschema.ResultError) ValidationError {
	field := re.Field()
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			field = prop
		}
	}
	return ValidationError{
		Field:   field,
		Message: re.Description(),
		Code:    errorCode(re.Type()),
	}
}

func errorCode(schemaType string) string {
	switch schemaType {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "number_gte", "number_gt":
		return "MINIMUM_VIOLATION"
	case "number_lte", "number_lt":
		return "MAXIMUM_VIOLATION"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "format":
		return "INVALID_FORMAT"
	case "pattern":
		return "PATTERN_MISMATCH"
	default:
		return "SCHEMA_VIOLATION"
	}
}

// recognisedIndustries covers both built-in strategies' industry tables.
var recognisedIndustries = append(append([]string{}, models.Industries...),
	models.IndustrySaaS, models.IndustryFinTech, models.IndustryHealthTech,
	models.IndustryEcommerce, models.IndustryRestaurants, models.IndustryProfessional,
	models.IndustryManufacturing, models.IndustryHealthcareSvc, models.IndustryConsulting,
)

// EnumWarnings lists enum values the scorer does not recognise. They are
// accepted and scored with the fallback bucket. Business model and location
// are not scored; values outside the wizard's lists are reported only.
func EnumWarnings(p models.BusinessProfile) []string {
	var warnings []string
	if p.BusinessType != "" && !models.Contains(models.BusinessTypes, p.BusinessType) {
		warnings = append(warnings, fmt.Sprintf("business_type %q is not recognised and is scored as %s", p.BusinessType, models.BusinessTypeOther))
	}
	if p.Industry != "" && !models.Contains(recognisedIndustries, p.Industry) {
		warnings = append(warnings, fmt.Sprintf("industry %q is not recognised and is scored with the default adjustment", p.Industry))
	}
	if p.FounderExperience != "" && !models.Contains(models.FounderExperienceLevels, p.FounderExperience) {
		warnings = append(warnings, fmt.Sprintf("founder_experience %q is not recognised and receives no experience adjustment", p.FounderExperience))
	}
	if p.BusinessModel != "" && !models.Contains(models.BusinessModels, p.BusinessModel) {
		warnings = append(warnings, fmt.Sprintf("business_model %q is not one of the listed models", p.BusinessModel))
	}
	if p.Location != "" && !models.Contains(models.Locations, p.Location) {
		warnings = append(warnings, fmt.Sprintf("location %q is outside the listed markets", p.Location))
	}
	return warnings
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
