package server

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/rentbill/internal/period"
)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("period", validatePeriod)
		}
	})
}

// validatePeriod accepts YYYY-MM billing months.
func validatePeriod(fl validator.FieldLevel) bool {
	_, err := period.Parse(fl.Field().String())
	return err == nil
}
