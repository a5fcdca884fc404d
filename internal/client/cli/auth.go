package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvote/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getPassword = GetPassword

func (a *App) credentials() (string, string, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", "", err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	defer common.WipeByteArray(password)

	return userName, string(password), nil
}

// Register prompts for a username and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}

	if err := a.client.Register(ctx, userName, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Login authenticates and keeps the access token for later commands.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, userName, password); err != nil {
		return err
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
