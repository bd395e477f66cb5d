package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/user"
)

// Logger discards everything; Errors keeps the messages passed to Error for assertions.
type Logger struct {
	Errors []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) Debug(string, ...interface{})          {}
func (l *Logger) Info(string, ...interface{})           {}
func (l *Logger) Warn(string, ...interface{})           {}
func (l *Logger) Error(msg string, _ ...interface{})    { l.Errors = append(l.Errors, msg) }
func (l *Logger) Fatal(msg string, args ...interface{}) { panic(msg) }

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// CreateUser stores a user with a hashed password, born on 2000-01-02.
func CreateUser(t *testing.T, repo user.Repository, name, email, pwd string) user.User {
	usr := user.User{
		Name:  name,
		Email: email,
		DOB:   time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
