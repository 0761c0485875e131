package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	arnRegex       = regexp.MustCompile(`^arn:aws:[a-z0-9\-]+:[a-z0-9\-]*:[0-9]{12}:.*$`)
	bcp47Regex     = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)
	dataImageToken = "data:image/"
)

// isARN checks if a string is a valid AWS ARN.
func isARN(fl validator.FieldLevel) bool {
	return arnRegex.MatchString(fl.Field().String())
}

// isDataImage checks that a string is an image data URL.
func isDataImage(fl validator.FieldLevel) bool {
	return strings.HasPrefix(fl.Field().String(), dataImageToken)
}

// isLanguageTag accepts short BCP-47 tags such as "en" or "en-US".
func isLanguageTag(fl validator.FieldLevel) bool {
	return bcp47Regex.MatchString(fl.Field().String())
}

// RegisterCustomValidators registers custom validation functions with the validator.
func RegisterCustomValidators(validate *validator.Validate) error {
	custom := map[string]validator.Func{
		"arn":       isARN,
		"dataimage": isDataImage,
		"langtag":   isLanguageTag,
	}
	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}
