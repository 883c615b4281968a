// Package validation wraps go-playground/validator.v10 struct-tag
// validation for the handler layer's request DTOs, producing the
// {field, tag} detail rows NewValidationError's envelope carries.
package validation

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct-tag validation on req and returns a details map
// suitable for ErrorResponse.Details, or nil once every constraint passes.
func Validate(req interface{}) map[string]interface{} {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]interface{}{"error": err.Error()}
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field() + " failed " + fe.Tag()
	}
	return map[string]interface{}{"fields": fields}
}
