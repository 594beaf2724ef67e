package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/careflow/internal/config"
	"github.com/matzehuels/careflow/internal/probe"
	careerrors "github.com/matzehuels/careflow/pkg/errors"
	"github.com/matzehuels/careflow/pkg/monitor"
)

// careService answers the probe endpoints with fixed statuses.
func careService(t *testing.T, statuses map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, ok := statuses[r.URL.Path]
		if !ok {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			io.WriteString(w, `{"path":"`+r.URL.Path+`","query":"`+r.URL.RawQuery+`"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// useEnv points the CLI at baseURL with an empty config directory.
func useEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(config.EnvAPIURL, baseURL)
	t.Setenv(config.EnvAPIToken, "")
	t.Setenv(config.EnvRedisAddr, "")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"get", "health", "watch", "serve", "config", "cache", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVerboseFlagSetsDebugLevel(t *testing.T) {
	useEnv(t, "http://localhost:1")
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"config", "--verbose"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestConfigCommand(t *testing.T) {
	useEnv(t, "https://care.example.com")
	t.Setenv(config.EnvAPIToken, "s3cret")

	out, _, err := execute(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, `base_url = "https://care.example.com"`) {
		t.Errorf("output missing base_url:\n%s", out)
	}
	if strings.Contains(out, "s3cret") {
		t.Error("config output must not contain the token")
	}
}

func TestConfigCommand_ExplicitFile(t *testing.T) {
	useEnv(t, "")
	path := writeConfig(t, "[server]\nlisten = \":9999\"\n")

	out, _, err := execute(t, "config", "--config", path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, `listen = ":9999"`) {
		t.Errorf("output missing listen:\n%s", out)
	}

	if _, _, err := execute(t, "config", "-c", filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestConfigPathCommand(t *testing.T) {
	useEnv(t, "")
	dir := os.Getenv("XDG_CONFIG_HOME")

	out, _, err := execute(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != filepath.Join(dir, appName, "config.toml") {
		t.Errorf("config path = %q", out)
	}
}

func TestGetCommand(t *testing.T) {
	srv := careService(t, map[string]int{"/caregivers": http.StatusOK})
	useEnv(t, srv.URL)

	out, errOut, err := execute(t, "get", "/caregivers", "-q", "region=north")
	if err != nil {
		t.Fatalf("get: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, `"path": "/caregivers"`) {
		t.Errorf("output not pretty JSON:\n%s", out)
	}
	if !strings.Contains(out, `"query": "region=north"`) {
		t.Errorf("query not sent:\n%s", out)
	}
	if !strings.Contains(errOut, "healthy") {
		t.Errorf("health line missing from stderr:\n%s", errOut)
	}
}

func TestGetCommand_NotFound(t *testing.T) {
	srv := careService(t, nil)
	useEnv(t, srv.URL)

	_, errOut, err := execute(t, "get", "/caregivers/999")
	if err == nil {
		t.Fatal("get should fail on 404")
	}
	if st, ok := careerrors.StatusOf(err); !ok || st != http.StatusNotFound {
		t.Errorf("error = %v, want status 404", err)
	}
	if !strings.Contains(errOut, "error") {
		t.Errorf("health line missing from stderr:\n%s", errOut)
	}
}

func TestGetCommand_BadQuery(t *testing.T) {
	useEnv(t, "http://localhost:1")

	_, _, err := execute(t, "get", "/caregivers", "-q", "region")
	if !careerrors.Is(err, careerrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestHealthCommand(t *testing.T) {
	srv := careService(t, map[string]int{"/questionnaire": http.StatusOK, "/caregivers": http.StatusOK})
	useEnv(t, srv.URL)

	out, _, err := execute(t, "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	for _, want := range []string{"/questionnaire", "/caregivers", "200", "healthy", "Requests"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHealthCommand_Unhealthy(t *testing.T) {
	srv := careService(t, nil)
	useEnv(t, srv.URL)

	out, _, err := execute(t, "health")
	if !errors.Is(err, errUnhealthy) {
		t.Fatalf("health error = %v, want errUnhealthy", err)
	}
	if !strings.Contains(out, "404") {
		t.Errorf("output missing status:\n%s", out)
	}
}

func TestCacheStatusCommand(t *testing.T) {
	srv := careService(t, map[string]int{"/questionnaire": http.StatusOK})
	useEnv(t, srv.URL)

	out, _, err := execute(t, "cache", "status")
	if err != nil {
		t.Fatalf("cache status: %v", err)
	}
	if !strings.Contains(out, "GET /questionnaire") {
		t.Errorf("cache entry missing:\n%s", out)
	}
	if !strings.Contains(out, "status 404") {
		t.Errorf("failed endpoint should be reported:\n%s", out)
	}
	if !strings.Contains(out, "1 entries") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestRenderCacheStatus_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderCacheStatus(&buf, nil)
	if !strings.Contains(buf.String(), "Cache is empty") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			out, _, err := execute(t, "completion", shell)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, appName) {
				t.Errorf("%s completion does not mention %s", shell, appName)
			}
		})
	}
	if _, _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in      []string
		want    string
		wantErr bool
	}{
		{nil, "", false},
		{[]string{"region=north"}, "region=north", false},
		{[]string{"skill=dementia", "region=north", "skill=mobility"}, "region=north&skill=dementia&skill=mobility", false},
		{[]string{"available="}, "available=", false},
		{[]string{"region"}, "", true},
		{[]string{"=north"}, "", true},
	}
	for _, tt := range tests {
		q, err := parseQuery(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseQuery(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && q.Encode() != tt.want {
			t.Errorf("parseQuery(%v) = %q, want %q", tt.in, q.Encode(), tt.want)
		}
	}
}

func TestNewest(t *testing.T) {
	got := newest([]int{1, 2, 3, 4}, 2)
	if len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Errorf("newest = %v", got)
	}
	if got := newest([]int{1}, 5); len(got) != 1 {
		t.Errorf("newest = %v", got)
	}
}

func TestWatchModel(t *testing.T) {
	srv := careService(t, map[string]int{"/questionnaire": http.StatusOK, "/caregivers": http.StatusServiceUnavailable})
	useEnv(t, srv.URL)
	path := writeConfig(t, `
[probe]
endpoints = ["/questionnaire", "/caregivers"]
interval = "1h"

[retry]
max_attempts = 1
`)

	c := New(io.Discard, LogInfo)
	c.configPath = path
	cfg, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.newStack(cfg)
	if err != nil {
		t.Fatal(err)
	}

	m := newWatchModel(context.Background(), s.prober(c, nil), s.monitor, cfg.API.BaseURL, cfg.Probe.Interval)
	if !strings.Contains(m.View(), "Probing...") {
		t.Errorf("initial view should show probing:\n%s", m.View())
	}

	msg := m.Init()()
	round, ok := msg.(roundMsg)
	if !ok {
		t.Fatalf("Init produced %T, want roundMsg", msg)
	}
	if len(round.results) != 2 {
		t.Fatalf("round has %d results", len(round.results))
	}

	next, cmd := m.Update(round)
	if cmd == nil {
		t.Error("a finished round should schedule the next one")
	}
	m = next.(WatchModel)
	if m.rounds != 1 || m.probing {
		t.Errorf("rounds = %d, probing = %v", m.rounds, m.probing)
	}
	view := m.View()
	for _, want := range []string{"/questionnaire", "/caregivers", "503", "round 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if m.dash.API.TotalRequests != 2 {
		t.Errorf("dashboard requests = %d, want 2", m.dash.API.TotalRequests)
	}

	next, cmd = m.Update(tickMsg(time.Now()))
	if cmd == nil || !next.(WatchModel).probing {
		t.Error("a tick should start a round")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if next.(WatchModel).dash.API.TotalRequests != 0 {
		t.Error("r should reset the monitor")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
}

func TestRenderHealthReport(t *testing.T) {
	mon := monitor.New(monitor.DefaultConfig())
	mon.RecordCall(http.MethodGet, "/caregivers", 0, 3*time.Millisecond)
	mon.RecordError(monitor.TypeNetworkError, errors.New("connection refused"))

	var buf bytes.Buffer
	results := []probe.Result{{
		Endpoint: "/caregivers",
		Err:      careerrors.New(careerrors.ErrCodeNetworkUnreachable, "connection refused"),
	}}
	renderHealthReport(&buf, "http://care.local", results, mon.Dashboard())

	out := buf.String()
	for _, want := range []string{"http://care.local", "/caregivers", "connection refused", "Recent errors", monitor.TypeNetworkError} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
