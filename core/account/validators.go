package account

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/gradebook/core"
)

var (
	// values left over by a form that was never filled in
	placeholders   = []string{"userid", "username", "password"}
	notPlaceholder = "notplaceholder"
	placeholderTxt = "{0} cannot be a placeholder value"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username"
)

// InitValidators registers the account validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(notPlaceholder, notPlaceholderValidation)
	core.RegisterCustomTranslation(validate, translator, notPlaceholder, placeholderTxt)

	validate.RegisterStructValidation(signUpStructValidation, SignUp{})
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// notPlaceholderValidation rejects the placeholder texts of the registration form.
func notPlaceholderValidation(fl validator.FieldLevel) bool {
	val := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	for _, p := range placeholders {
		if val == p {
			return false
		}
	}
	return true
}

// signUpStructValidation does struct level validation on SignUp.
func signUpStructValidation(sl validator.StructLevel) {
	if su, ok := sl.Current().Interface().(SignUp); ok {
		if tooSimilar(su.Password, su.Username) {
			sl.ReportError(su.Password, "password", "Password", pwdAttrSimTag, "")
		}
	}
}

func tooSimilar(pwd, attr string) bool {
	if pwd == "" || attr == "" {
		return false
	}
	ratio := difflib.NewMatcher(
		strings.Split(strings.ToLower(pwd), ""),
		strings.Split(strings.ToLower(attr), ""),
	).QuickRatio()
	return ratio >= pwdMaxSim
}
