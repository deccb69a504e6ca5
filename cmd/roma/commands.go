package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	roma "github.com/binrc/roma-client-go"
	"github.com/binrc/roma-client-go/internal/sshkey"
	"github.com/binrc/roma-client-go/internal/version"
)

// noSetup skips configuration loading for commands that never call the API.
func noSetup(*cobra.Command, []string) error { return nil }

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return a.fail("list users", err)
			}
			return a.print(users)
		},
	})
	return cmd
}

func newResourcesCmd(a *app) *cobra.Command {
	var resourceType string

	list := &cobra.Command{
		Use:   "list",
		Short: "List resources",
		Long: fmt.Sprintf(`List resources, optionally of one type.

Types: %s`, strings.Join(roma.ResourceTypes(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := a.client.ListResources(cmd.Context(), resourceType)
			if err != nil {
				return a.fail("list resources", err)
			}
			return a.print(resources)
		},
	}
	list.Flags().StringVarP(&resourceType, "type", "t", "", "resource type")

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Manage resources",
	}
	cmd.AddCommand(list)
	return cmd
}

func newBlacklistCmd(a *app) *cobra.Command {
	var (
		page     int
		pageSize int
		reason   string
		duration int
	)

	list := &cobra.Command{
		Use:   "list",
		Short: "List banned addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.ListBlacklist(cmd.Context(), page, pageSize)
			if err != nil {
				return a.fail("list blacklist", err)
			}
			return a.print(result)
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&pageSize, "page-size", 20, "entries per page")

	add := &cobra.Command{
		Use:   "add <ip>",
		Short: "Ban an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := roma.BlacklistRequest{IP: args[0], Reason: reason, Duration: duration}
			if err := a.client.AddToBlacklist(cmd.Context(), req); err != nil {
				return a.fail("add to blacklist", err)
			}
			fmt.Fprintf(a.streams.Stdout, "Banned %s\n", args[0])
			return nil
		},
	}
	add.Flags().StringVar(&reason, "reason", "", "reason for the ban")
	add.Flags().IntVar(&duration, "duration", 0, "ban duration in seconds, 0 bans permanently")

	remove := &cobra.Command{
		Use:   "remove <ip>",
		Short: "Lift the ban on an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.RemoveFromBlacklist(cmd.Context(), args[0]); err != nil {
				return a.fail("remove from blacklist", err)
			}
			fmt.Fprintf(a.streams.Stdout, "Unbanned %s\n", args[0])
			return nil
		},
	}

	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage banned addresses",
	}
	cmd.AddCommand(list, add, remove)
	return cmd
}

func newSSHKeyCmd(a *app) *cobra.Command {
	var comment string

	fingerprint := &cobra.Command{
		Use:   "fingerprint <public-key-file>",
		Short: "Print the SHA256 fingerprint of a public key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read public key: %w", err)
			}
			key, err := sshkey.ParsePublicKey(string(data))
			if err != nil {
				return err
			}
			line := strings.TrimSpace(key.Type + " " + key.Fingerprint + " " + key.Comment)
			fmt.Fprintln(a.streams.Stdout, line)
			return nil
		},
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate an ed25519 key pair locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pair, err := sshkey.GenerateEd25519(comment)
			if err != nil {
				return err
			}
			return a.print(pair)
		},
	}
	generate.Flags().StringVar(&comment, "comment", "", "key comment")

	cmd := &cobra.Command{
		Use:               "sshkey",
		Short:             "Work with SSH keys locally",
		PersistentPreRunE: noSetup,
	}
	cmd.AddCommand(fingerprint, generate)
	return cmd
}

func newRequestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "request <method> <path> [key=value...]",
		Short: "Send a raw API request",
		Long: `Send a request to a path below the API root and print the response data.

Values that parse as JSON (numbers, true, false, null) are sent as such,
anything else as a string. Keys with a null value are dropped.

Examples:
  roma request GET resources type=linux
  roma request POST roles name=dev desc="Developers"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}

			params, err := parseParams(args[2:])
			if err != nil {
				return err
			}

			data, err := a.client.DoRaw(cmd.Context(), method, args[1], params)
			if err != nil {
				return a.fail("request failed", err)
			}
			return a.print(data)
		},
	}
}

// parseParams turns key=value arguments into request parameters.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		var v any
		dec := json.NewDecoder(strings.NewReader(value))
		dec.UseNumber()
		if err := dec.Decode(&v); err == nil && !dec.More() {
			switch v.(type) {
			case json.Number, bool, nil:
				params[key] = v
				continue
			}
		}
		params[key] = value
	}
	return params, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: noSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(version.Get())
		},
	}
}
