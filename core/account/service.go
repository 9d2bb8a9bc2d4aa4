package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account deactivated")
	ErrInvalidCode        = errors.New("invalid or expired code")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acc Account) (Account, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		// UpdateAccount saves every field but ID and CreatedAt.
		UpdateAccount(ctx context.Context, acc Account) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckEmailUniqueness(email string) error
		Create(ctx context.Context, na NewAccount) (Account, error)
		QueryAll(ctx context.Context) ([]Account, error)
		GetByID(ctx context.Context, id string) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
		// Authenticate checks the credentials of an active account and records the login.
		Authenticate(ctx context.Context, email, pwd string) (Account, error)
		SetPassword(ctx context.Context, acc Account, pwd string) (Account, error)
		SetActive(ctx context.Context, acc Account, active bool) (Account, error)
		RequestPasswordRecovery(ctx context.Context, email string) error
		RecoverPassword(ctx context.Context, data RecoverPassword) error
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenGenerator
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) CheckEmailUniqueness(email string) error {
	_, err := svc.repo.GetAccountByEmail(context.Background(), email)
	switch errors.Cause(err) {
	case ErrNotFound:
		return nil
	case nil:
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	default:
		return errors.Wrap(err, "checking email uniqueness")
	}
}

func (svc *service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	acc := Account{
		Name:      na.Name,
		Email:     na.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAccount(ctx, acc)
}

func (svc *service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (Account, error) {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by email")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acc.IsActive {
		return Account{}, ErrInactive
	}

	acc.LastLogin = time.Now().UTC()
	acc, err = svc.repo.UpdateAccount(ctx, acc)
	return acc, errors.Wrap(err, "setting last login")
}

func (svc *service) SetPassword(ctx context.Context, acc Account, pwd string) (Account, error) {
	if err := acc.SetPassword(pwd); err != nil {
		return Account{}, errors.Wrap(err, "hashing password")
	}
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *service) SetActive(ctx context.Context, acc Account, active bool) (Account, error) {
	acc.IsActive = active
	acc.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAccount(ctx, acc)
}

// RequestPasswordRecovery emails a recovery code to an active account. ErrNotFound is returned for unknown emails.
func (svc *service) RequestPasswordRecovery(ctx context.Context, email string) error {
	acc, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !acc.IsActive {
		return ErrInactive
	}

	code, err := svc.tokens.makeToken(acc)
	if err != nil {
		return errors.Wrap(err, "making recovery code")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.Name, Address: acc.Email}},
		Subject:      "Password Recovery",
		TemplateName: "password_recovery",
		TemplateData: map[string]interface{}{
			"Name":      acc.Name,
			"Code":      code,
			"ValidDays": svc.tokens.validDays(),
		},
	})
	return nil
}

func (svc *service) RecoverPassword(ctx context.Context, data RecoverPassword) error {
	invalidCode := core.NewValidationError(ErrInvalidCode, core.FieldError{Field: "code", Error: ErrInvalidCode.Error()})

	acc, err := svc.GetByEmail(ctx, data.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidCode
		}
		return errors.Wrap(err, "finding account by email")
	}
	if err = svc.tokens.verifyToken(acc, data.Code); err != nil {
		return invalidCode
	}

	if _, err = svc.SetPassword(ctx, acc, data.Password); err != nil {
		return errors.Wrap(err, fmt.Sprintf("setting password of %s", acc.ID))
	}
	return nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccountsByID(ctx, ids...)
}
