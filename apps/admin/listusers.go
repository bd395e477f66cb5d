package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

func (cli *commandLine) listUsers() error {
	users, err := cli.usrSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EMAIL\tNAME\tDOB\tLEGACY PASSWORD")
	for _, usr := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", usr.Email, usr.Name, usr.DOBString(), usr.HasLegacyPassword())
	}
	return w.Flush()
}
