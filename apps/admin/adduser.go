package main

import (
	"context"
	"fmt"

	"github.com/trezcool/gradebook/core/account"
)

// addUser registers a teacher account. Admins are not gated by the master code.
func (cli *commandLine) addUser(uname, pwd string) error {
	acc, err := cli.accSvc.Register(context.Background(), account.NewAccount{Username: uname, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "account %q created\n", acc.Username)
	return nil
}

func (cli *commandLine) listUsers() error {
	accs, err := cli.accSvc.QueryAll(context.Background())
	if err != nil {
		return err
	}
	for _, acc := range accs {
		fmt.Fprintf(cli.out, "%d\t%s\t%s\n", acc.ID, acc.Username, acc.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
