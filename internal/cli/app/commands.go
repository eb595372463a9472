package app

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/flocknet/flock/pkg/authstate"
	"github.com/flocknet/flock/pkg/feedsdk"
)

// Session commands: login, logout, whoami, register, reset-password.

func (app *Application) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(app.out)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.requireGuest(ctx); err != nil {
		return err
	}

	if *username == "" {
		var err error
		*username, err = app.prompt("username: ")
		if err != nil {
			return err
		}
	}
	if *password == "" {
		var err error
		*password, err = app.prompt("password: ")
		if err != nil {
			return err
		}
	}

	resp, err := app.client.Login(ctx, *username, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	app.tokens.SetUsername(resp.Username)
	identity := authstate.Identity{Username: resp.Username, IsAuthenticated: true}
	if err := app.session.Login(identity, resp.Access); err != nil {
		return err
	}

	fmt.Fprintf(app.out, "signed in as %s\n", resp.Username)
	return nil
}

func (app *Application) cmdLogout(ctx context.Context) error {
	app.session.Recover(ctx)
	app.session.Logout(ctx)
	fmt.Fprintln(app.out, "signed out")
	return nil
}

func (app *Application) cmdWhoami(ctx context.Context) error {
	app.session.Recover(ctx)

	state := app.state.Get()
	if state.Status != authstate.StatusAuthenticated {
		fmt.Fprintln(app.out, "not signed in")
		return nil
	}

	fmt.Fprintln(app.out, state.Identity.Username)
	return nil
}

func (app *Application) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(app.out)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := app.requireGuest(ctx); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return fmt.Errorf("register needs -u and -e")
	}

	available, err := app.client.CheckUsername(ctx, *username)
	if err != nil {
		return err
	}
	if !available {
		return fmt.Errorf("username %q is taken", *username)
	}

	if err := app.client.SendVerification(ctx, *email, feedsdk.FlowRegister); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	fmt.Fprintf(app.out, "verification code sent to %s\n", *email)

	verification, err := app.collectVerification(ctx, *email, feedsdk.FlowRegister)
	if err != nil {
		return err
	}

	password, err := app.prompt("password: ")
	if err != nil {
		return err
	}
	confirm, err := app.prompt("confirm password: ")
	if err != nil {
		return err
	}

	msg, err := app.client.Register(ctx, feedsdk.RegisterRequest{
		Username:        *username,
		Password:        password,
		ConfirmPassword: confirm,
		Token:           verification.Token,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintln(app.out, msg)
	return nil
}

func (app *Application) cmdResetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(app.out)
	email := fs.String("e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("reset-password needs -e")
	}

	if err := app.client.SendVerification(ctx, *email, feedsdk.FlowReset); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	fmt.Fprintf(app.out, "verification code sent to %s\n", *email)

	verification, err := app.collectVerification(ctx, *email, feedsdk.FlowReset)
	if err != nil {
		return err
	}

	password, err := app.prompt("new password: ")
	if err != nil {
		return err
	}
	confirm, err := app.prompt("confirm new password: ")
	if err != nil {
		return err
	}

	if err := app.client.ResetPassword(ctx, verification.Token, password, confirm); err != nil {
		return err
	}

	fmt.Fprintln(app.out, "password reset, sign in again on every device")
	return nil
}

// collectVerification prompts for the emailed code while a countdown shows
// how long it stays valid.
func (app *Application) collectVerification(ctx context.Context, email string, flow feedsdk.Flow) (*feedsdk.VerifyEmailResponse, error) {
	countdownCtx, stop := context.WithCancel(ctx)
	defer stop()

	remaining := feedsdk.Countdown(countdownCtx, feedsdk.VerificationWindow, 15*time.Second)
	go func() {
		for left := range remaining {
			fmt.Fprintf(app.out, "code valid for another %s\n", left.Round(time.Second))
		}
	}()

	code, err := app.prompt("verification code: ")
	if err != nil {
		return nil, err
	}
	stop()

	verification, err := app.client.VerifyEmail(ctx, email, code, flow)
	if err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	if !verification.Verified {
		return nil, fmt.Errorf("code rejected: %s", verification.Message)
	}

	return verification, nil
}

func (app *Application) prompt(label string) (string, error) {
	fmt.Fprint(app.out, label)

	line, err := app.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
