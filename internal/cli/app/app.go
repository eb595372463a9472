package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flocknet/flock/internal/cli/store"
	"github.com/flocknet/flock/internal/cli/store/drivers/sqlite"
	"github.com/flocknet/flock/pkg/authstate"
	"github.com/flocknet/flock/pkg/feedsdk"
	"github.com/flocknet/flock/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the state database, the feed SDK, and the session
// controller behind the CLI commands.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	tokens  *store.TokenAdapter
	client  *feedsdk.Client
	state   *authstate.Store
	session *feedsdk.SessionController
	gateway *feedsdk.Gateway

	out io.Writer
	in  *bufio.Reader
}

// New creates an Application with all dependencies initialized. The state
// database is opened (and migrated) immediately; the session stays Pending
// until a command calls Recover.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "flock",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		out: os.Stdout,
		in:  bufio.NewReader(os.Stdin),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.tokens = store.NewTokenAdapter(app.db, cfg.ServerURL, cfg.StateKey, app.logger)
	app.client = feedsdk.NewClient(cfg.ServerURL, app.tokens, app.logger)
	app.state = authstate.NewStore()
	app.session = feedsdk.NewSessionController(app.client, app.state)
	app.gateway = app.session.Gateway()

	return app, nil
}

func (app *Application) initDatabase() error {
	if dir := filepath.Dir(app.cfg.DatabaseFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app.db = db
	return nil
}

// Close releases the state database.
func (app *Application) Close() error {
	if app.db != nil {
		return app.db.Close()
	}
	return nil
}

// Run dispatches one CLI invocation. args excludes the program name.
func (app *Application) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		app.usage()
		return fmt.Errorf("no command given")
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return app.cmdLogin(ctx, rest)
	case "register":
		return app.cmdRegister(ctx, rest)
	case "reset-password":
		return app.cmdResetPassword(ctx, rest)
	case "logout":
		return app.cmdLogout(ctx)
	case "whoami":
		return app.cmdWhoami(ctx)
	case "feed":
		return app.cmdFeed(ctx, rest)
	case "post":
		return app.cmdPost(ctx, rest)
	case "like":
		return app.cmdLike(ctx, rest)
	case "comments":
		return app.cmdComments(ctx, rest)
	case "follow":
		return app.cmdFollow(ctx, rest)
	case "profile":
		return app.cmdProfile(ctx, rest)
	case "version":
		fmt.Fprintln(app.out, BuildVersion)
		return nil
	default:
		app.usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (app *Application) usage() {
	fmt.Fprintln(app.out, `usage: flock <command> [flags]

session
  login            sign in and persist the session
  logout           sign out here and on the server
  whoami           show the signed-in user
  register         create an account (email verification)
  reset-password   reset a forgotten password

feed
  feed             read a timeline page
  post             publish, edit, or delete a post
  like             toggle a like, or list likers
  comments         read or add comments
  follow           toggle follow, or list the follow graph
  profile          show a user's profile`)
}

// requireUser recovers the session and refuses the command when it resolves
// to Anonymous. This is the CLI rendering of the signed-in route guard.
func (app *Application) requireUser(ctx context.Context, from string) error {
	app.session.Recover(ctx)

	decision := authstate.RouteGuard(app.state.Get(), from)
	if decision.Action == authstate.ActionRedirect {
		fmt.Fprintln(app.out, decision.Reason)
		return fmt.Errorf("not signed in, run `flock login`")
	}
	return nil
}

// requireGuest refuses sign-in flows while a session is already active.
func (app *Application) requireGuest(ctx context.Context) error {
	app.session.Recover(ctx)

	decision := authstate.GuestGuard(app.state.Get())
	if decision.Action == authstate.ActionRedirect {
		return fmt.Errorf("already signed in as %s, run `flock logout` first",
			app.state.Get().Identity.Username)
	}
	return nil
}
