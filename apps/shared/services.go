package shared

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/services/photo"
	"github.com/trezcool/gradebook/storage/database/sqlx"
)

// Services are the core services backed by db.
type Services struct {
	Accounts   *account.Service
	Grades     *grade.Service
	Photos     *photosvc.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

func NewServices(conf *core.Config, db *sqlx.DB) Services {
	validate, translator := NewValidator()
	photos := photosvc.NewService(conf)
	return Services{
		Accounts:   account.NewService(sqlxrepos.NewAccountRepository(db), validate, conf),
		Grades:     grade.NewService(db, sqlxrepos.NewGradeRepository(db), photos, validate),
		Photos:     photos,
		Validate:   validate,
		Translator: translator,
	}
}
