package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/user"
)

// addUser signs up a new user; the same rules as the web signup apply.
func (cli *commandLine) addUser(nu user.NewUser) error {
	if err := nu.Validate(cli.validate); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return invalidInput(core.TranslateErrors(vErrs, cli.translator))
		}
		return err
	}

	usr, err := cli.usrSvc.Signup(context.Background(), nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "created %s\n", usr.Email)
	return nil
}

func invalidInput(fldErrs map[string]string) error {
	msgs := make([]string, 0, len(fldErrs))
	for fld, msg := range fldErrs {
		msgs = append(msgs, fld+": "+msg)
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}
