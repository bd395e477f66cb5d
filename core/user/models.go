package user

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/alama/core"
)

var errPasswordMismatch = errors.New("password mismatch")

// User is a credential record. Email is the unique key.
type User struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	DOB      time.Time `json:"dob"`
	Password string    `json:"-"` // bcrypt hash; records written by older tools hold plaintext
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares pwd with the stored password.
func (u *User) CheckPassword(pwd string) error {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(pwd))
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(pwd)) == 1 {
		return nil
	}
	return errPasswordMismatch
}

// HasLegacyPassword reports whether the stored password is not hashed.
func (u *User) HasLegacyPassword() bool {
	return !isBcryptHash(u.Password)
}

func (u *User) DOBString() string {
	return core.FormatDate(u.DOB)
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

// NewUser contains information needed to sign up a new User.
type NewUser struct {
	Name     string `json:"name" form:"name" validate:"max=100"`
	Phone    string `json:"phone" form:"phone" validate:"max=32"`
	DOB      string `json:"dob" form:"dob" validate:"required,datetime=2006-01-02,notfuture"`
	Email    string `json:"email" form:"email" validate:"required,max=254,email,pathsafe"`
	Password string `json:"password" form:"password" validate:"required,notblank"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Phone = core.CleanString(nu.Phone)
	nu.DOB = core.CleanString(nu.DOB)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// LoginRequest is what a user provides to log in.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
