package cli

import (
	"context"
	"errors"
)

var errMissingInput = errors.New("missing input")

func (a *App) Register(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		a.println("Error: could not read password")
		return err
	}
	defer wipe(password)

	if name == "" || email == "" || len(password) == 0 {
		a.println("Name, email and password are required.")
		return errMissingInput
	}

	user, err := a.api.Register(ctx, name, email, string(password))
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Registered and logged in as %s\n", user.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		a.println("Error: could not read password")
		return err
	}
	defer wipe(password)

	if email == "" || len(password) == 0 {
		a.println("Please enter email and password.")
		return errMissingInput
	}

	user, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("Welcome, %s\n", user.Name)
	return nil
}

// Logout always ends the local session; a server failure is only reported.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	if err != nil {
		a.log.Debugf("logout request failed: %v", err)
	}
	a.println("Logged out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, err := a.api.Me(ctx)
	if err != nil {
		a.report(err)
		return err
	}
	a.printf("%s <%s>\nid: %s\nmember since: %s\n", user.Name, user.Email, user.ID, user.CreatedAt.Format("2006-01-02"))
	return nil
}
