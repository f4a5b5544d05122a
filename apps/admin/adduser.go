package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}

	now := time.Now().UTC()
	create := false
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, lookup)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		create = true
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now

	if create {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		active := true
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &active)
	}
	return err
}
