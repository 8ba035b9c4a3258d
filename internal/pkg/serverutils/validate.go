package serverutils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wheslancardoso/backend-mindmesh/internal/apperror"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and reports the first failing
// field as an invalid-input error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		first := fieldErrors[0]
		return apperror.NewInvalidInput(strings.ToLower(first.Field()), "failed on rule '"+first.Tag()+"'")
	}
	return apperror.NewInvalidInput("request", err.Error())
}
