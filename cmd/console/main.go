// Package main provides the console CLI: a session-managing client for the
// multi-tenant financial console. The CLI maps the browser tab's session slot
// to a file under the state directory and keeps the access token silently
// renewed while `watch` runs.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/safvlabs/go-console-client/auth"
	"github.com/safvlabs/go-console-client/internal/config"
	"github.com/safvlabs/go-console-client/renewal"
	"github.com/safvlabs/go-console-client/session"
	"github.com/safvlabs/go-console-client/transport"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "console",
		Usage: "Session-managing client for the financial console",
		Commands: []*cli.Command{
			loginCommand(),
			statusCommand(),
			refreshCommand(),
			logoutCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate against a tenant and persist the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tenant",
				Aliases:  []string{"t"},
				Usage:    "Tenant identifier",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Account password (prompted when omitted)",
				EnvVars: []string{"CONSOLE_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			password := c.String("password")
			if password == "" {
				var err error
				if password, err = promptPassword(); err != nil {
					return err
				}
			}

			mgr, teardown, err := newManager()
			if err != nil {
				return err
			}
			defer teardown()

			mgr.Start()
			if err := mgr.Login(c.Context, c.String("tenant"), c.String("email"), password); err != nil {
				return err
			}
			snap := mgr.Snapshot()
			fmt.Printf("logged in to tenant %s\n", snap.TenantID)
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the current session state",
		Action: func(c *cli.Context) error {
			mgr, teardown, err := newManager()
			if err != nil {
				return err
			}
			defer teardown()

			mgr.Start()
			printSnapshot(mgr.Snapshot())
			return nil
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Renew the access token now",
		Action: func(c *cli.Context) error {
			mgr, teardown, err := newManager()
			if err != nil {
				return err
			}
			defer teardown()

			mgr.Start()
			mgr.Refresh(c.Context)
			snap := mgr.Snapshot()
			if !snap.Authenticated {
				return errors.New("session could not be renewed, logged out")
			}
			fmt.Printf("session renewed for tenant %s\n", snap.TenantID)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "End the session and revoke the refresh token",
		Action: func(c *cli.Context) error {
			mgr, teardown, err := newManager()
			if err != nil {
				return err
			}
			defer teardown()

			mgr.Start()
			mgr.Logout(c.Context)
			fmt.Println("logged out")
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the session silently renewed until interrupted",
		Action: func(c *cli.Context) error {
			cfg := config.New()
			displayAppname(cfg.GetAppName())

			mgr, teardown, err := newManager()
			if err != nil {
				return err
			}
			defer teardown()

			mgr.Start()
			snap := mgr.Snapshot()
			if !snap.Authenticated {
				return errors.New("no active session, run login first")
			}
			fmt.Printf("watching session for tenant %s, press Ctrl-C to stop\n", snap.TenantID)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}
}

// newManager wires config, store, transport and scheduler into a lifecycle
// manager. The returned teardown must run before the process exits.
func newManager() (*auth.Manager, func(), error) {
	cfg := config.New()
	log := newLogger(cfg)

	if err := os.MkdirAll(cfg.GetStateDir(), 0o700); err != nil {
		return nil, nil, errors.Wrap(err, "[newManager] create state dir")
	}

	store := session.NewFileStore(
		filepath.Join(cfg.GetStateDir(), cfg.GetSessionSlotName()),
		session.WithFileStoreLogger(log.With().Str("component", "store").Logger()),
	)
	tr := transport.NewClient(
		cfg.GetBaseURL(),
		transport.WithTimeout(cfg.GetRequestTimeout()),
		transport.WithClientLogger(log.With().Str("component", "transport").Logger()),
	)
	scheduler := renewal.NewScheduler(
		renewal.WithSkew(cfg.GetRefreshSkew()),
		renewal.WithLogger(log.With().Str("component", "renewal").Logger()),
	)

	mgr, err := auth.NewManager(store, tr, scheduler,
		auth.WithLogger(log.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return nil, nil, err
	}
	return mgr, mgr.Close, nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", errors.Wrap(err, "[promptPassword] read stdin")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func printSnapshot(snap auth.Snapshot) {
	if !snap.Authenticated {
		fmt.Println("not authenticated")
		return
	}
	fmt.Printf("tenant:        %s\n", snap.TenantID)
	fmt.Printf("access token:  %s...\n", truncate(snap.AccessToken, 12))
	fmt.Println("authenticated: true")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
