package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// HandlePattern defines the valid public handle format: lowercase
// alphanumeric, hyphens, underscores, 3 to 20 characters.
var HandlePattern = regexp.MustCompile(`^[a-z0-9_-]{3,20}$`)

// ColorPattern accepts #rgb and #rrggbb colours.
var ColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHandle checks if a handle matches the allowed pattern.
func ValidateHandle(handle string) bool {
	return HandlePattern.MatchString(handle)
}

// NormalizeHandle lowercases and trims a handle so lookups are case-insensitive.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	// Parse the URL
	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	// Check scheme - only allow http and https
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	// Ensure host is present
	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return ValidateHandle(fl.Field().String())
		})
		_ = validate.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
			ok, _ := ValidateURL(fl.Field().String())
			return ok
		})
		_ = validate.RegisterValidation("color", func(fl validator.FieldLevel) bool {
			return ColorPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates v against its `validate` tags and returns the first
// problem as a user-facing message.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(message(verrs[0]))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "handle":
		return fmt.Sprintf("%s must be 3-20 lowercase letters, numbers, hyphens, or underscores", field)
	case "weburl":
		return fmt.Sprintf("%s must be a valid http:// or https:// URL", field)
	case "color":
		return fmt.Sprintf("%s must be a hex colour like #1a2b3c", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "dive", "uuid":
		return fmt.Sprintf("%s contains an invalid id", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
