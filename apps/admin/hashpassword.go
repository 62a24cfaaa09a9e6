package main

import (
	"errors"
	"fmt"

	"github.com/trezcool/schoolconnect/core/session"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := session.HashPassword(pwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}
