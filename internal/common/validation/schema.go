package validation

import (
	"embed"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages returns "field: message" strings.
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
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}

// Summary joins every message into one line, for error details.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

var (
	compileOnce        sync.Once
	profileSchema      *gojsonschema.Schema
	neighborhoodSchema *gojsonschema.Schema
	compileErr         error
)

func compiled() error {
	compileOnce.Do(func() {
		if profileSchema, compileErr = loadSchema("schemas/user_profile.json"); compileErr != nil {
			return
		}
		neighborhoodSchema, compileErr = loadSchema("schemas/neighborhood.json")
	})
	return compileErr
}

func loadSchema(name string) (*gojsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return schema, nil
}

// ValidateProfileJSON checks a raw user profile document.
func ValidateProfileJSON(raw []byte) (*ValidationResult, error) {
	if err := compiled(); err != nil {
		return nil, err
	}
	return toResult(profileSchema.Validate(gojsonschema.NewBytesLoader(raw)))
}

// ValidateNeighborhoodJSON checks a raw neighborhood document.
func ValidateNeighborhoodJSON(raw []byte) (*ValidationResult, error) {
	if err := compiled(); err != nil {
		return nil, err
	}
	return toResult(neighborhoodSchema.Validate(gojsonschema.NewBytesLoader(raw)))
}

// ValidateNeighborhood checks an already decoded document, e.g. one element
// of a catalog file decoded into []interface{}.
func ValidateNeighborhood(doc interface{}) (*ValidationResult, error) {
	if err := compiled(); err != nil {
		return nil, err
	}
	return toResult(neighborhoodSchema.Validate(gojsonschema.NewGoLoader(doc)))
}

// ValidateAgainst checks doc against an ad-hoc schema such as an activity's
// inputSchema from the registry. An empty schema accepts everything.
func ValidateAgainst(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	return toResult(gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc)))
}

func toResult(result *gojsonschema.Result, err error) (*ValidationResult, error) {
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

var (
	structOnce sync.Once
	structV    *validator.Validate
)

func structValidator() *validator.Validate {
	structOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		structV.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return structV
}

// Struct runs `validate` struct tags, reporting fields by their JSON names.
func Struct(v interface{}) *ValidationResult {
	err := structValidator().Struct(v)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	out := &ValidationResult{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out.Errors = append(out.Errors, ValidationError{Field: "(root)", Message: err.Error(), Code: "INVALID"})
		return out
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("failed on %q", fe.Tag()),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return out
}

func ValidateEmail(email string) bool {
	return structValidator().Var(email, "required,email") == nil
}

// ValidatePhone accepts E.164 numbers, the format SNS expects.
func ValidatePhone(phone string) bool {
	return structValidator().Var(phone, "required,e164") == nil
}
