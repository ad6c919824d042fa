package validator

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var weekdays = map[string]struct{}{
	"MONDAY": {}, "TUESDAY": {}, "WEDNESDAY": {}, "THURSDAY": {},
	"FRIDAY": {}, "SATURDAY": {}, "SUNDAY": {},
}

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	// report fields by their JSON name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("hhmm", validateTimeOfDay)
	v.RegisterValidation("weekday", validateWeekday)
	return &CustomValidator{
		validator: v,
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param()
			case "max":
				errors[field] = field + " must be at most " + e.Param()
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "oneof":
				errors[field] = field + " must be one of " + e.Param()
			case "hhmm":
				errors[field] = field + " must be a time of day in HH:MM format"
			case "weekday":
				errors[field] = field + " must be a weekday from MONDAY to SUNDAY"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := weekdays[fl.Field().String()]
	return ok
}
