package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roma "github.com/binrc/roma-client-go"
	"github.com/binrc/roma-client-go/internal/credentials"
	"github.com/binrc/roma-client-go/internal/romatest"
	"github.com/binrc/roma-client-go/internal/sshkey"
)

type harness struct {
	srv       *romatest.Server
	credsPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, name := range []string{"ROMA_API_URL", "ROMA_API_BASE_URL", "ROMA_ORIGIN", "ROMA_ENV", "ROMA_CREDENTIALS", "ROMA_LOG_LEVEL", "ROMA_LOG_FORMAT"} {
		t.Setenv(name, "")
	}

	srv := romatest.NewServer()
	t.Cleanup(srv.Close)
	return &harness{srv: srv, credsPath: filepath.Join(home, "creds.json")}
}

// run executes the command line against the fake backend.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cfg := Config{Stdin: strings.NewReader(stdin), Stdout: &stdout, Stderr: &stderr}

	full := append([]string{"roma",
		"--api-url", h.srv.URL,
		"--credentials", h.credsPath,
		"--max-attempts", "1",
	}, args...)
	err := run(full, cfg)
	return stdout.String(), stderr.String(), err
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, _, err := h.run(t, romatest.Password+"\n", "login", "-u", romatest.Username, "--password-stdin")
	require.NoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, os.Stdin, cfg.Stdin)
	assert.Equal(t, os.Stdout, cfg.Stdout)
	assert.Equal(t, os.Stderr, cfg.Stderr)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, romatest.Password+"\n", "login", "-u", romatest.Username, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin")

	creds, err := credentials.NewFileStore(h.credsPath).Get()
	require.NoError(t, err)
	assert.Equal(t, romatest.Token, creds.Token)
	assert.Equal(t, romatest.Email, creds.Email)

	out, _, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	var user roma.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, romatest.Username, user.Username)
	assert.Equal(t, "Bearer "+romatest.Token, h.srv.LastRequest().Authorization)

	out, _, err = h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = os.Stat(h.credsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "", "login", "-u", romatest.Username, "-p", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, roma.ErrUnauthorized)
	assert.Contains(t, stderr, "roma login")
}

func TestLogin_APIKey(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "login", "--api-key", romatest.APIKey)
	require.NoError(t, err)
	assert.Contains(t, out, "with an API key")

	creds, err := credentials.NewFileStore(h.credsPath).Get()
	require.NoError(t, err)
	assert.Empty(t, creds.Token)
	assert.Equal(t, romatest.APIKey, creds.APIKey)
}

func TestLogin_MissingArguments(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "login")
	assert.ErrorContains(t, err, "--username")

	_, _, err = h.run(t, "", "login", "-u", "admin")
	assert.ErrorContains(t, err, "password")
	assert.Empty(t, h.srv.Requests())
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "status")
	require.NoError(t, err)

	var status statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.LoggedIn)
	assert.Equal(t, "none", status.AuthMethod)
	assert.Equal(t, "missing", status.Token)
	assert.Equal(t, h.srv.APIRoot(), status.APIRoot)
	assert.Equal(t, "ok", status.Health["status"])

	h.login(t)
	out, _, err = h.run(t, "", "status")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.True(t, status.LoggedIn)
	assert.Equal(t, "token", status.AuthMethod)
	assert.Equal(t, "opaque", status.Token)
	assert.Equal(t, romatest.Username, status.Username)
}

func TestUsersList_Unauthenticated(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "", "users", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, roma.ErrUnauthorized)
	assert.Contains(t, stderr, "roma login")
}

func TestResourcesList(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.srv.AddResource(roma.Resource{ID: 1, Type: roma.ResourceLinux, Hostname: "web-1"})
	h.srv.AddResource(roma.Resource{ID: 2, Type: roma.ResourceDocker, Name: "registry"})

	out, _, err := h.run(t, "", "resources", "list", "--type", "docker")
	require.NoError(t, err)
	var resources []roma.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &resources))
	require.Len(t, resources, 1)
	assert.Equal(t, "registry", resources[0].Name)

	_, _, err = h.run(t, "", "resources", "list", "--type", "mainframe")
	assert.ErrorIs(t, err, roma.ErrInvalidResourceType)
}

func TestBlacklist(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "", "blacklist", "add", "192.0.2.7", "--reason", "scan", "--duration", "60")
	require.NoError(t, err)
	assert.Contains(t, out, "Banned 192.0.2.7")
	assert.Equal(t, "scan", h.srv.LastRequest().Body["reason"])

	out, _, err = h.run(t, "", "blacklist", "list")
	require.NoError(t, err)
	var page roma.BlacklistPage
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 1, page.Total)

	_, _, err = h.run(t, "", "blacklist", "remove", "192.0.2.7")
	require.NoError(t, err)

	_, _, err = h.run(t, "", "blacklist", "remove", "nope")
	assert.ErrorIs(t, err, roma.ErrInvalidIP)
}

func TestRequest(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out, _, err := h.run(t, "", "request", "post", "roles", "name=dev", "desc=null")
	require.NoError(t, err)
	var role roma.Role
	require.NoError(t, json.Unmarshal([]byte(out), &role))
	assert.Equal(t, "dev", role.Name)
	assert.Equal(t, map[string]any{"name": "dev"}, h.srv.LastRequest().Body)

	_, _, err = h.run(t, "", "request", "PATCH", "roles")
	assert.ErrorContains(t, err, "unsupported method")

	_, _, err = h.run(t, "", "request", "GET", "roles", "broken")
	assert.ErrorContains(t, err, "want key=value")
}

func TestSSHKeyFingerprint(t *testing.T) {
	h := newHarness(t)
	pair, err := sshkey.GenerateEd25519("me@host")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	require.NoError(t, os.WriteFile(path, []byte(pair.PublicKey+"\n"), 0o600))

	out, _, err := h.run(t, "", "sshkey", "fingerprint", path)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519 "+pair.Fingerprint+" me@host\n", out)
	assert.Empty(t, h.srv.Requests())
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "dev"`)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want map[string]any
	}{
		{"empty", nil, map[string]any{}},
		{"string", []string{"name=dev"}, map[string]any{"name": "dev"}},
		{"number", []string{"page=2"}, map[string]any{"page": json.Number("2")}},
		{"bool and null", []string{"active=true", "desc=null"}, map[string]any{"active": true, "desc": nil}},
		{"equals in value", []string{"q=a=b"}, map[string]any{"q": "a=b"}},
		{"empty value", []string{"q="}, map[string]any{"q": ""}},
		{"json string stays quoted text", []string{`q="x"`}, map[string]any{"q": `"x"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseParams([]string{"=x"})
	assert.Error(t, err)
}
