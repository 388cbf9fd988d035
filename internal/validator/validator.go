// internal/validator/validator.go
package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Transaction/category type: INCOME or EXPENSE
	_ = Validate.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "INCOME" || s == "EXPENSE"
	})

	// Budget month: "2024-03-01", first day of the month
	_ = Validate.RegisterValidation("firstofmonth", func(fl validator.FieldLevel) bool {
		t, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil && t.Day() == 1
	})

	// Date: "2006-01-02"
	_ = Validate.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// String not empty and not only whitespace
	_ = Validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(regexp.MustCompile(`\S`).FindString(s)) > 0
	})
}
