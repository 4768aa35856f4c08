package grade

import (
	"regexp"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

var (
	quarterTag  = "quarter"
	quarterText = "quarter must be one of: Quarter 1, Quarter 2, Quarter 3, Quarter 4"

	schoolYearTag   = "schoolyear"
	schoolYearText  = "school year must look like 2024-2025"
	schoolYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// InitValidators registers the grade validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(quarterTag, quarterValidation)
	core.RegisterCustomTranslation(validate, translator, quarterTag, quarterText)

	_ = validate.RegisterValidation(schoolYearTag, schoolYearValidation)
	core.RegisterCustomTranslation(validate, translator, schoolYearTag, schoolYearText)
}

// quarterValidation checks that the value is one of Quarters.
func quarterValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, q := range Quarters {
		if val == q {
			return true
		}
	}
	return false
}

// schoolYearValidation checks the "YYYY-YYYY" format with consecutive years.
func schoolYearValidation(fl validator.FieldLevel) bool {
	m := schoolYearRegex.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
