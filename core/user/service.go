package user

import (
	"context"
	"errors"
	"net/mail"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var (
	// errors
	ErrNotFound         = errors.New("user not found")
	ErrDuplicateAccount = errors.New("user with this email already exists")
)

type (
	Repository interface {
		// CreateUser stores a new record; ErrDuplicateAccount if the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		// UpdateUser replaces the record keyed by usr.Email; ErrNotFound if missing.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// Provisioner prepares per-user storage once an account exists.
	Provisioner interface {
		Provision(ctx context.Context, email string) error
	}

	Service struct {
		repo    Repository
		storage Provisioner
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, storage Provisioner, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		mailSvc: mailSvc,
	}
}

// Signup creates the credential record and the user's storage.
// A second signup with the same email returns ErrDuplicateAccount and changes nothing.
func (svc *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	dob, err := core.ParseDate(nu.DOB)
	if err != nil {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "dob", Error: "invalid date"})
	}
	usr := User{
		Email: core.CleanString(nu.Email, true /* lower */),
		Name:  nu.Name,
		Phone: nu.Phone,
		DOB:   dob,
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}

	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			return User{}, ErrDuplicateAccount
		}
		return User{}, pkgerrors.Wrap(err, "creating user")
	}
	if err = svc.storage.Provision(ctx, usr.Email); err != nil {
		return User{}, pkgerrors.Wrap(err, "provisioning user storage")
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

// ValidateLogin reports whether email exists and password matches, with the display name on success.
// err is only set for storage failures.
func (svc *Service) ValidateLogin(ctx context.Context, email, password string) (bool, string, error) {
	usr, ok, err := svc.Authenticate(ctx, email, password)
	return ok, usr.Name, err
}

// Authenticate is ValidateLogin returning the stored user, whose Email is the key the record
// is kept under and may differ in case from the email typed in.
func (svc *Service) Authenticate(ctx context.Context, email, password string) (User, bool, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, false, nil
		}
		return User{}, false, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(password); err != nil {
		return User{}, false, nil
	}
	return usr, true, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

// ResetPassword replaces the stored password of the user with the given email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: map[string]string{"Name": usr.Name, "Email": usr.Email},
	})
}
