package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tahsil/core"
	"github.com/trezcool/tahsil/core/user"
)

// addUser updates or creates an active user.User with the given roles.
func (cli *commandLine) addUser(name, uname, email, pwd string, roles []string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil && errors.Cause(err) == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
	}
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return err
	}
	found := err == nil

	if name != "" {
		usr.Name = name
	}
	usr.Username = uname
	usr.Email = email
	usr.Roles = roles
	usr.IsActive = true
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	now := time.Now().UTC()
	usr.UpdatedAt = now
	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr, true)
		return errors.Wrap(err, "updating user")
	}
	usr.CreatedAt = now
	_, err = cli.usrRepo.CreateUser(ctx, usr)
	return errors.Wrap(err, "creating user")
}
