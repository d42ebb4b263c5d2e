package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/gabenodland/trace-sub002/internal/common"
)

// Register prompts for credentials and creates an account. The session
// tokens from a successful registration keep the client logged in.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, username, string(password)); err != nil {
		fmt.Println("registration failed:", err)
		return err
	}

	a.loggedIn = true
	fmt.Println("Registered and logged in as", username)
	return nil
}

// Login prompts for credentials and authenticates against the server.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, username, string(password)); err != nil {
		fmt.Println("login failed:", err)
		return err
	}

	a.loggedIn = true
	fmt.Println("Logged in as", username)
	return nil
}

// Logout closes the open entry, if any, and drops the session state.
func (a *App) Logout(ctx context.Context) error {
	if a.current != nil {
		if err := a.current.HandleBack(ctx); err != nil {
			fmt.Println("warning: final save failed:", err)
		}
		a.current = nil
	}
	a.loggedIn = false
	fmt.Println("Logged out")
	return nil
}
