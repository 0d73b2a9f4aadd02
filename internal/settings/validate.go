package settings

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their settings-file key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("key")
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("coordinates", validCoordinates)
	_ = v.RegisterValidation("writable_dir", writableDir)
	return v
}

// validCoordinates accepts "longitude,latitude" in decimal degrees.
func validCoordinates(fl validator.FieldLevel) bool {
	lon, lat, ok := strings.Cut(fl.Field().String(), ",")
	if !ok {
		return false
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil || x < -180 || x > 180 {
		return false
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || y < -90 || y > 90 {
		return false
	}
	return true
}

func writableDir(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	return isWritable(path)
}

// keyOf maps a schema Go field name to its settings-file key.
func keyOf(structField string) string {
	f, ok := reflect.TypeFor[schema]().FieldByName(structField)
	if !ok {
		return structField
	}
	return f.Tag.Get("key")
}

// describe turns a validator failure into a short human message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is not set", keyOf(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("must not be set together with %s", keyOf(fe.Param()))
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "coordinates":
		return `must be "longitude,latitude" in decimal degrees`
	case "writable_dir":
		return "must be an existing writable directory"
	case "file":
		return "must be an existing file"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
