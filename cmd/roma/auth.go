package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	roma "github.com/binrc/roma-client-go"
	"github.com/binrc/roma-client-go/internal/logger"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
		apiKey        string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with a username and password, or with an API key, and store
the credentials for later commands.

Examples:
  # Sign in with a password read from stdin
  echo "$ROMA_PASSWORD" | roma login -u admin --password-stdin

  # Use an API key instead of a session token
  roma login --api-key "$ROMA_API_KEY"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if apiKey != "" {
				user, err := a.client.UseAPIKey(ctx, apiKey)
				if err != nil {
					return a.fail("api key login failed", err)
				}
				fmt.Fprintf(a.streams.Stdout, "Logged in as %s with an API key\n", user.Username)
				return nil
			}

			if username == "" {
				return errors.New("--username is required unless --api-key is given")
			}
			if passwordStdin {
				line, err := bufio.NewReader(a.streams.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password from stdin: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("a password is required: use --password or --password-stdin")
			}

			resp, err := a.client.Login(ctx, username, password)
			if err != nil {
				return a.fail("login failed", err)
			}
			name := username
			if resp.User != nil && resp.User.Username != "" {
				name = resp.User.Username
			}
			fmt.Fprintf(a.streams.Stdout, "Logged in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "authenticate with an API key")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(); err != nil {
				return fmt.Errorf("remove credentials: %w", err)
			}
			fmt.Fprintln(a.streams.Stdout, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.CurrentUser(cmd.Context())
			if err != nil {
				return a.fail("fetch current user", err)
			}
			return a.print(user)
		},
	}
}

// statusOutput is printed by the status command.
type statusOutput struct {
	APIRoot     string         `json:"api_root"`
	Credentials string         `json:"credentials_file"`
	LoggedIn    bool           `json:"logged_in"`
	Username    string         `json:"username,omitempty"`
	Email       string         `json:"email,omitempty"`
	AuthMethod  string         `json:"auth_method"`
	Token       string         `json:"token_status"`
	ExpiresAt   string         `json:"token_expires_at,omitempty"`
	Health      map[string]any `json:"health,omitempty"`
	HealthError string         `json:"health_error,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.client.Session()
			if err != nil {
				return err
			}

			out := statusOutput{
				APIRoot:     a.client.BaseURL(),
				Credentials: a.store.Path(),
				LoggedIn:    session.LoggedIn(),
				Username:    session.Username,
				Email:       session.Email,
				AuthMethod:  authMethod(session),
				Token:       session.TokenInfo.Status.String(),
			}
			if !session.TokenInfo.ExpiresAt.IsZero() {
				out.ExpiresAt = session.TokenInfo.ExpiresAt.Format(time.RFC3339)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
			defer cancel()
			health, err := a.client.Health(ctx)
			if err != nil {
				out.HealthError = err.Error()
			} else {
				out.Health = health
			}
			return a.print(out)
		},
	}
}

func authMethod(s roma.Session) string {
	switch {
	case s.Token != "":
		return "token"
	case s.APIKey != "":
		return "api_key"
	default:
		return "none"
	}
}

// fail logs err with its API details and returns it wrapped with msg.
func (a *app) fail(msg string, err error) error {
	a.log.Debug(msg, logger.ErrorAttrs(err)...)
	return fmt.Errorf("%s: %w", msg, err)
}
