// Package env resolves where the ROMA API lives and which deployment
// environment the client runs in.
//
// Values come from the process environment first, then from values baked in
// at build time with
//
//	-ldflags "-X github.com/binrc/roma-client-go/internal/env.buildAPIBaseURL=https://roma.example.com"
//
// and finally from defaults. A value that still contains "PLACEHOLDER" is
// treated as unset so container images can ship with unreplaced templates.
package env

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	goenv "github.com/Netflix/go-env"
)

const (
	DefaultAPIBaseURL = "/api"
	DefaultOrigin     = "http://localhost:8080"
	DefaultName       = "development"
)

// Environment names.
const (
	Development = "development"
	Production  = "prod"
	Test        = "test"
	Staging     = "staging"
	Demo        = "demo"
)

// Set at build time.
var (
	buildAPIBaseURL string
	buildEnv        string
)

// Environment is the resolved client environment.
type Environment struct {
	Name       string `env:"ROMA_ENV"`
	APIBaseURL string `env:"ROMA_API_BASE_URL"`
	Origin     string `env:"ROMA_ORIGIN,default=http://localhost:8080"`
	Demo       bool   `env:"ROMA_DEMO,default=false"`
}

// Load reads the environment and applies build-time values and defaults.
func Load() (*Environment, error) {
	var e Environment
	if _, err := goenv.UnmarshalFromEnviron(&e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	e.Name = firstSet(e.Name, buildEnv, DefaultName)
	e.APIBaseURL = firstSet(e.APIBaseURL, buildAPIBaseURL, DefaultAPIBaseURL)
	e.Origin = firstSet(e.Origin, DefaultOrigin)

	return &e, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !strings.Contains(v, "PLACEHOLDER") {
			return v
		}
	}
	return ""
}

func (e *Environment) IsDevelopment() bool { return e.Name == Development }
func (e *Environment) IsProduction() bool  { return e.Name == Production }
func (e *Environment) IsTest() bool        { return e.Name == Test }
func (e *Environment) IsStaging() bool     { return e.Name == Staging }

// IsDemo reports a demo deployment, flagged explicitly, by name, or by a
// demo host in the origin.
func (e *Environment) IsDemo() bool {
	if e.Demo || e.Name == Demo {
		return true
	}
	u, err := url.Parse(e.Origin)
	return err == nil && strings.Contains(u.Hostname(), "demo")
}

// APIRoot returns the absolute API root for e.
func (e *Environment) APIRoot() (string, error) {
	return ResolveAPIRoot(e.APIBaseURL, e.Origin)
}

// LogValue implements slog.LogValuer.
func (e *Environment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("env", e.Name),
		slog.String("api_base_url", e.APIBaseURL),
		slog.String("origin", e.Origin),
		slog.Bool("demo", e.IsDemo()),
	)
}

// ResolveAPIRoot turns a configured base into the versioned API root.
//
// An absolute http(s) URL names the backend host and gets "api/v1/"
// appended. Anything else is a path behind a reverse proxy: it is resolved
// against origin and gets "v1/" appended.
func ResolveAPIRoot(base, origin string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultAPIBaseURL
	}

	lower := strings.ToLower(base)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("invalid API base URL %q", base)
		}
		return withSlash(base) + "api/v1/", nil
	}

	if origin == "" {
		origin = DefaultOrigin
	}
	o, err := url.Parse(origin)
	if err != nil || o.Scheme == "" || o.Host == "" {
		return "", fmt.Errorf("invalid origin %q: must be an absolute URL", origin)
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	ref, err := url.Parse(withSlash(base) + "v1/")
	if err != nil {
		return "", fmt.Errorf("invalid API base path %q: %w", base, err)
	}
	return o.ResolveReference(ref).String(), nil
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
