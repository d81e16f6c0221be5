package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/wastewatch/internal/client/client"
	"github.com/dmitrijs2005/wastewatch/internal/common"
)

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in")

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for name, email and password and creates the account.
// It does not log the user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Signup(ctx, name, email, password); err != nil {
		a.report("Registration failed", err)
		return err
	}

	fmt.Fprintln(a.out, "Registered. You can now log in.")
	return nil
}

// Login signs in and keeps the session token in memory.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.api.Signin(ctx, email, password)
	if err != nil {
		a.report("Login failed", err)
		return err
	}

	a.session = s
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.Name)
	return nil
}

// Dashboard fetches the protected resource with the current token.
func (a *App) Dashboard(ctx context.Context) error {
	if a.session == nil {
		fmt.Fprintln(a.out, "Please log in first.")
		return ErrNotLoggedIn
	}

	d, err := a.api.Dashboard(ctx, a.session.Token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			// the server no longer accepts this token
			a.session = nil
		}
		a.report("Dashboard unavailable", err)
		return err
	}

	fmt.Fprintln(a.out, d.Message)
	fmt.Fprintf(a.out, "  id:     %s\n  email:  %s\n  joined: %s\n",
		d.User.ID, d.User.Email, d.User.Joined.Format("2006-01-02"))
	return nil
}

// Logout drops the token. Nothing is sent to the server.
func (a *App) Logout(ctx context.Context) error {
	a.session = nil
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) report(prefix string, err error) {
	fmt.Fprintf(a.out, "%s: %v\n", prefix, err)

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		fields := make([]string, 0, len(apiErr.Fields))
		for f := range apiErr.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(a.out, "  %s %s\n", f, apiErr.Fields[f])
		}
	}
}
