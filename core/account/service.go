package account

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound          = errors.New("account not found")
	ErrUsernameExists    = errors.New("an account with this username already exists")
	ErrInvalidMasterCode = errors.New("incorrect master code")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username string, exec ...core.DBExecutor) error
		CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		GetAccountByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (Account, error)
		QueryAccounts(ctx context.Context, exec ...core.DBExecutor) ([]Account, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		masterCode string
	}
)

func NewService(repo Repository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:       repo,
		validate:   validate,
		masterCode: conf.MasterCode,
	}
}

// CheckMasterCode gates registration behind the shared master code.
// Registration is closed when no master code is configured.
func (svc *Service) CheckMasterCode(code string) error {
	if svc.masterCode == "" || subtle.ConstantTimeCompare([]byte(code), []byte(svc.masterCode)) != 1 {
		return core.NewValidationError(
			ErrInvalidMasterCode,
			core.FieldError{Field: "master_code", Error: ErrInvalidMasterCode.Error()},
		)
	}
	return nil
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname); err != nil {
		if errors.Cause(err) == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Register validates na and creates the Account.
// A taken username fails with a core.ValidationError wrapping ErrUsernameExists.
func (svc *Service) Register(ctx context.Context, na NewAccount) (Account, error) {
	if err := na.Validate(ctx, svc.validate, svc); err != nil {
		return Account{}, err
	}

	acc := Account{
		Username:  na.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}

	acc, err := svc.repo.CreateAccount(ctx, acc)
	if err != nil {
		// lost a race against a concurrent registration
		if errors.Cause(err) == ErrUsernameExists {
			return Account{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return Account{}, errors.Wrap(err, "creating account")
	}
	return acc, nil
}

// SignUp checks the registration form & the master code, then registers the Account.
func (svc *Service) SignUp(ctx context.Context, su SignUp) (Account, error) {
	if err := su.Validate(svc.validate); err != nil {
		return Account{}, err
	}
	if err := svc.CheckMasterCode(su.MasterCode); err != nil {
		return Account{}, err
	}
	return svc.Register(ctx, NewAccount{Username: su.Username, Password: su.Password})
}

// Verify returns the Account matching both username and password exactly.
// ok is false for an unknown username or a wrong password.
func (svc *Service) Verify(ctx context.Context, uname, pwd string) (acc Account, ok bool, err error) {
	acc, err = svc.repo.GetAccountByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, false, nil
		}
		return Account{}, false, errors.Wrap(err, "finding account by username")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, false, nil
	}
	return acc, true, nil
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Account, error) {
	return svc.repo.GetAccountByUsername(ctx, uname)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx)
}
