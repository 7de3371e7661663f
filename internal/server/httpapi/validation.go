package httpapi

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// registerValidations adds the custom binding rules. gin shares one
// validator engine per process, so repeated calls are harmless.
func registerValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("phonetype", func(fl validator.FieldLevel) bool {
		return models.PhoneType(fl.Field().String()).Valid()
	})
}
