package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-materials-client/app"
	"github.com/jrsteele09/go-materials-client/internal/config"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/jrsteele09/go-materials-client/sessions"
	"github.com/jrsteele09/go-materials-client/token"
	"github.com/spf13/cobra"
)

// cli carries the state shared by every command of one invocation.
type cli struct {
	configPath string
	in         *bufio.Reader
	out        io.Writer
	app        *app.App
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: bufio.NewReader(in), out: out}

	cmd := &cobra.Command{
		Use:           "materials",
		Short:         "Browse the materials catalogue from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close(context.Background())
		},
	}
	cmd.SetOut(out)
	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file (default $"+config.ConfigFileEnvVar+")")

	cmd.AddCommand(c.newLoginCommand())
	cmd.AddCommand(c.newLogoutCommand())
	cmd.AddCommand(c.newWhoamiCommand())
	cmd.AddCommand(c.newListCommand())
	cmd.AddCommand(c.newServeMetricsCommand())
	return cmd
}

func (c *cli) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.GetLogLevel())

	c.app, err = app.New(ctx, cfg)
	return err
}

func (c *cli) close(ctx context.Context) error {
	if c.app == nil {
		return nil
	}
	return c.app.Close(ctx)
}

func (c *cli) newLoginCommand() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = c.prompt("Username: ")
			}
			if password == "" {
				password = c.prompt("Password: ")
			}

			s, err := c.app.Manager.Login(cmd.Context(), username, password)
			switch {
			case apperrors.Is(err, apperrors.ErrInvalidCredentials), apperrors.Is(err, apperrors.ErrMissingCredentials):
				fmt.Fprintln(c.out, "Invalid credentials")
				return apperrors.ErrInvalidCredentials
			case err != nil:
				return err
			}

			fmt.Fprintf(c.out, "Signed in as %s\n", displayName(s))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account user name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func (c *cli) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and erase the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Manager.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out")
			return nil
		},
	}
}

func (c *cli) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.restore(cmd.Context())
			if err != nil {
				return err
			}
			if s == nil {
				fmt.Fprintln(c.out, "Not signed in")
				return nil
			}

			user, _ := s.User()
			fmt.Fprintf(c.out, "Name:     %s\n", displayName(s))
			if avatar := user.AvatarURL(c.app.Config.GetImageBaseURL()); avatar != "" {
				fmt.Fprintf(c.out, "Avatar:   %s\n", avatar)
			}
			if user.Currency.Symbol != "" {
				fmt.Fprintf(c.out, "Currency: %s\n", user.Currency.Symbol)
			}
			if in, err := token.Introspect(s.AccessToken); err == nil && in.Exp != nil {
				fmt.Fprintf(c.out, "Expires:  %s\n", in.Exp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// restore picks up the stored session, reporting progress while the API is probed.
func (c *cli) restore(ctx context.Context) (*sessions.Session, error) {
	fmt.Fprintln(c.out, "Restoring session...")
	return c.app.Manager.Restore(ctx)
}

func (c *cli) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func displayName(s *sessions.Session) string {
	user, err := s.User()
	if err != nil || user.FullName == "" {
		if user.UserName != "" {
			return user.UserName
		}
		return "unknown user"
	}
	return user.FullName
}
