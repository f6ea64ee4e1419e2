package webhook

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists the payload fields that were absent or malformed.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "Missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

var payloadFieldByWire = map[string]string{
	FieldEventID:       "EventID",
	FieldClassID:       "ClassID",
	FieldCompetitionID: "CompetitionID",
	FieldPublished:     "Published",
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the fields def requires. Fields not required by def are ignored.
func Validate(def Definition, p Payload) error {
	fields := make([]string, 0, len(def.Required))
	for _, wire := range def.Required {
		if name, ok := payloadFieldByWire[wire]; ok {
			fields = append(fields, name)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	err := payloadValidator.StructPartial(p, fields...)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			out.Missing = append(out.Missing, fe.Field())
			continue
		}
		out.Invalid = append(out.Invalid, fe.Field())
	}
	return out
}
