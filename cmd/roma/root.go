package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	roma "github.com/binrc/roma-client-go"
	"github.com/binrc/roma-client-go/internal/config"
	"github.com/binrc/roma-client-go/internal/credentials"
	"github.com/binrc/roma-client-go/internal/env"
	"github.com/binrc/roma-client-go/internal/logger"
	"github.com/binrc/roma-client-go/internal/version"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	streams Config
	loader  *config.Loader
	cfg     *config.Config
	log     *slog.Logger
	store   *credentials.FileStore
	client  *roma.Client
}

// cliNavigator tells the user to log in again after a 401.
type cliNavigator struct {
	w io.Writer
}

func (cliNavigator) Location() string { return "" }

func (n cliNavigator) Redirect(string) {
	fmt.Fprintln(n.w, "Session expired or invalid, run `roma login` to sign in again.")
}

func newRootCmd(streams Config) *cobra.Command {
	a := &app{streams: streams, loader: config.NewLoader()}
	var configFile string

	root := &cobra.Command{
		Use:           "roma",
		Short:         "Command line client for the ROMA bastion API",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				a.loader.SetConfigFile(configFile)
			}
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.roma/.roma.yaml)")
	flags.String("api-url", "", "API base URL or path behind the origin (env ROMA_API_URL)")
	flags.String("origin", "", "origin a relative API path is resolved against")
	flags.String("credentials", "", "credentials file (default is $HOME/.roma/credentials.json)")
	flags.Duration("timeout", 0, "per-attempt request timeout")
	flags.Int("max-attempts", 0, "attempts for requests that get no response")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	if err := a.loader.BindFlags(flags); err != nil {
		panic(err) //coverage:ignore
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newStatusCmd(a),
		newUsersCmd(a),
		newResourcesCmd(a),
		newBlacklistCmd(a),
		newSSHKeyCmd(a),
		newRequestCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the client.
func (a *app) setup() error {
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.LoggerConfig()
	logCfg.Output = a.streams.Stderr
	a.log = logger.New(logCfg)

	environment, err := env.Load()
	if err != nil {
		return err
	}
	base := firstNonEmpty(cfg.APIURL, environment.APIBaseURL)
	origin := firstNonEmpty(cfg.Origin, environment.Origin)
	apiRoot, err := env.ResolveAPIRoot(base, origin)
	if err != nil {
		return err
	}

	a.log.Debug("configuration loaded",
		"config_file", a.loader.ConfigFileUsed(),
		"api_root", apiRoot,
		"credentials", cfg.Credentials,
		"environment", environment)

	a.store = credentials.NewFileStore(cfg.Credentials)
	a.client, err = roma.New(apiRoot,
		roma.WithCredentialStore(a.store),
		roma.WithTimeout(cfg.Timeout),
		roma.WithMaxAttempts(cfg.MaxAttempts),
		roma.WithRetryDelay(cfg.RetryDelay),
		roma.WithNavigator(cliNavigator{w: a.streams.Stderr}),
		roma.WithLogger(a.log),
		roma.WithUserAgent(version.UserAgent()),
	)
	return err
}

func (a *app) print(v any) error {
	return printJSON(a.streams.Stdout, v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
