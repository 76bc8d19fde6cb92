package dto

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// coinIDPattern matches upstream coin ids: lowercase slugs like "bitcoin" or
// "dogelon-mars".
var coinIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// RegisterValidations installs custom binding rules on gin's validator
// engine. Called once at startup.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine type")
	}
	return v.RegisterValidation("coinid", func(fl validator.FieldLevel) bool {
		return coinIDPattern.MatchString(fl.Field().String())
	})
}
