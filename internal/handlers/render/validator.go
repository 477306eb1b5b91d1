package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation tag for account numbers: exactly 10 ascii digits
const accountNumberTag = "account_number"

const accountNumberLen = 10

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation(accountNumberTag, validateAccountNumber)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateAccountNumber(fl validator.FieldLevel) bool {
	number := fl.Field().String()
	if len(number) != accountNumberLen {
		return false
	}

	// It's ok to work with string as bytes here
	for i := range len(number) {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}

	return true
}
