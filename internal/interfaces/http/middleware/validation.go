package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pharmos/backend/internal/domain/identity"
)

// SetupValidator configures gin's binding validator with custom tags.
// Call once at startup before registering routes.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// slug validates organization slugs before they hit the directory
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return identity.ValidSlug(fl.Field().String())
	})
}
