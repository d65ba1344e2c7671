package plan

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tahsil/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "must be a day of the school week, from saturday to friday"
)

// InitValidators registers the plan validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)
}

func weekdayValidation(fl validator.FieldLevel) bool {
	return isWeekday(fl.Field().String())
}
