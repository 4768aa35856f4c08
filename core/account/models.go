package account

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/gradebook/core"
)

// Account is a teacher account. The Username identifies the owner of grade records.
type Account struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// NewAccount contains information needed to register a new Account.
// Any non-blank username & password pair is accepted.
type NewAccount struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"` // bcrypt ignores bytes past 72
}

// Validate cleans and validates the NewAccount, then checks that the username is still available.
// Usernames are only trimmed: they are matched exactly (case included) on login.
func (na *NewAccount) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	na.Username = core.CleanString(na.Username)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, na.Username)
}

// SignUp is the registration form filled in by a teacher.
// It is stricter than NewAccount and gated by the master code.
type SignUp struct {
	Username   string `json:"username" validate:"required,max=64,alphanum_,notplaceholder"`
	Password   string `json:"password" validate:"required,max=72,notplaceholder"`
	MasterCode string `json:"master_code" validate:"required"`
}

func (su *SignUp) Validate(validate *validator.Validate) error {
	su.Username = core.CleanString(su.Username)
	su.MasterCode = core.CleanString(su.MasterCode)
	return validate.Struct(su)
}
