// Package shared holds the wiring common to the gradebook binaries.
package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
)

// NewValidator returns a validator with every custom validator & translation of the app registered,
// along with the translator of its error messages.
func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	account.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)
	return validate, translator
}
