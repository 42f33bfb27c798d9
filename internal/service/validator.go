package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/model/dto"
)

// Field error codes
const (
	CodeRequired     = "required"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodeInvalidEmail = "invalid_email"
	CodeInvalidJSON  = "invalid_json"
)

// FieldError is one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of an intake.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Details))
	for i, d := range e.Details {
		fields[i] = d.Field
	}
	return "invalid intake: " + strings.Join(fields, ", ")
}

// Has reports whether field was flagged.
func (e *ValidationError) Has(field string) bool {
	for _, d := range e.Details {
		if d.Field == field {
			return true
		}
	}
	return false
}

// applicant-facing wording per field
var fieldMessages = map[string]string{
	"preferred_name":    "Name is required for recognition",
	"email":             "Valid email required for connection",
	"discovery_story":   "Please share your discovery story",
	"tech_relationship": "Please share your technology relationship",
}

// Validator checks intake submissions. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns the typed intake or a *ValidationError naming every bad
// field. Values are passed through untouched.
func (v *Validator) Validate(req *dto.SubmitApplicationRequest) (*model.Intake, error) {
	if err := v.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}

		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, toFieldError(fe))
		}
		return nil, &ValidationError{Details: details}
	}

	return &model.Intake{
		PreferredName:    req.PreferredName,
		Email:            req.Email,
		DiscoveryStory:   req.DiscoveryStory,
		TechRelationship: req.TechRelationship,
	}, nil
}

func toFieldError(fe validator.FieldError) FieldError {
	field := fe.Field()
	out := FieldError{Field: field, Message: fieldMessages[field]}

	switch {
	case field == "email":
		out.Code = CodeInvalidEmail
	case fe.Tag() == "max":
		out.Code = CodeTooLong
		out.Message = fmt.Sprintf("Must be at most %s characters", fe.Param())
	case fe.Tag() == "required" && field == "preferred_name":
		out.Code = CodeRequired
	default:
		// an empty narrative is reported as too short
		out.Code = CodeTooShort
	}
	return out
}
