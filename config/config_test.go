package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero max articles",
			mutate: func(cfg *Config) {
				cfg.MaxArticles = 0
			},
			wantErr: "max articles",
		},
		{
			name: "candidates below articles",
			mutate: func(cfg *Config) {
				cfg.MaxCandidates = 3
			},
			wantErr: "max candidates",
		},
		{
			name: "empty target url",
			mutate: func(cfg *Config) {
				cfg.TargetURL = ""
			},
			wantErr: "target URL",
		},
		{
			name: "invalid url format",
			mutate: func(cfg *Config) {
				cfg.TargetURL = "http://"
			},
			wantErr: "target URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "settle fraction out of range",
			mutate: func(cfg *Config) {
				cfg.SettleFraction = 1.5
			},
			wantErr: "settle fraction",
		},
		{
			name: "no translate attempts",
			mutate: func(cfg *Config) {
				cfg.TranslateAttempts = 0
			},
			wantErr: "translate attempts",
		},
		{
			name: "unknown group",
			mutate: func(cfg *Config) {
				cfg.Group = "cloud"
			},
			wantErr: "group",
		},
		{
			name: "bad output format",
			mutate: func(cfg *Config) {
				cfg.OutputFile = "out.xml"
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.MaxArticles != 5 || cfg.MaxCandidates != 10 {
		t.Fatalf("caps = %d/%d, want 5/10", cfg.MaxArticles, cfg.MaxCandidates)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "42")
	t.Setenv("SCRAPER_TEST_BAD", "forty")
	t.Setenv("SCRAPER_TEST_DUR", "1500ms")
	t.Setenv("SCRAPER_TEST_BLANK", "   ")

	if v, ok, err := EnvInt("SCRAPER_TEST_INT"); err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = %d, %v, %v", v, ok, err)
	}
	if _, _, err := EnvInt("SCRAPER_TEST_BAD"); err == nil {
		t.Fatalf("expected parse error")
	}
	if v, ok, err := EnvDuration("SCRAPER_TEST_DUR"); err != nil || !ok || v != 1500*time.Millisecond {
		t.Fatalf("EnvDuration = %v, %v, %v", v, ok, err)
	}
	if _, ok := EnvString("SCRAPER_TEST_BLANK"); ok {
		t.Fatalf("blank value should be treated as unset")
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(envUsername, "alice")
	t.Setenv(envAccessKey, "")
	if CredentialsFromEnv().Complete() {
		t.Fatalf("credentials without access key should be incomplete")
	}

	t.Setenv(envAccessKey, "secret")
	creds := CredentialsFromEnv()
	if !creds.Complete() || creds.Username != "alice" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SCRAPER_DOTENV_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SCRAPER_DOTENV_VALUE", "")
	os.Unsetenv("SCRAPER_DOTENV_VALUE")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("SCRAPER_DOTENV_VALUE"); got != "from-file" {
		t.Fatalf("value = %q, want from-file", got)
	}
}

func TestLoadSessionsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.yaml")
	content := `sessions:
  - name: Local_Chrome
  - name: Static_Fetch
    static: true
  - name: Windows_Chrome
    remote: true
    os: Windows
    os_version: "10"
    browser: Chrome
    browser_version: latest
  - name: iPhone_Safari
    remote: true
    device: iPhone 14
    os_version: "16"
    browser: Safari
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write sessions file: %v", err)
	}

	entries, err := LoadSessions(path)
	if err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	sessions, err := BuildSessions(entries, "all")
	if err != nil {
		t.Fatalf("build sessions: %v", err)
	}
	if len(sessions) != 4 {
		t.Fatalf("sessions = %d, want 4", len(sessions))
	}

	if _, ok := sessions[0].Target.(models.LocalTarget); !ok {
		t.Fatalf("session 0 target = %T, want LocalTarget", sessions[0].Target)
	}
	if _, ok := sessions[1].Target.(models.StaticTarget); !ok {
		t.Fatalf("session 1 target = %T, want StaticTarget", sessions[1].Target)
	}
	desktop, ok := sessions[2].Target.(models.RemoteDesktopTarget)
	if !ok || desktop.OS != "Windows" || desktop.BrowserVersion != "latest" {
		t.Fatalf("session 2 target = %#v", sessions[2].Target)
	}
	mobile, ok := sessions[3].Target.(models.RemoteMobileTarget)
	if !ok || mobile.Device != "iPhone 14" || mobile.OSVersion != "16" {
		t.Fatalf("session 3 target = %#v", sessions[3].Target)
	}
}

func TestBuildSessionsGroupsAndDuplicates(t *testing.T) {
	entries := DefaultSessions()

	local, err := BuildSessions(entries, "local")
	if err != nil {
		t.Fatalf("build local: %v", err)
	}
	if len(local) != 1 || local[0].Name != "Local_Chrome" {
		t.Fatalf("local group = %+v", local)
	}

	remote, err := BuildSessions(entries, "remote")
	if err != nil {
		t.Fatalf("build remote: %v", err)
	}
	if len(remote) != 5 {
		t.Fatalf("remote group = %d sessions, want 5", len(remote))
	}

	dup := append(DefaultSessions(), SessionEntry{Name: "Local_Chrome"})
	if _, err := BuildSessions(dup, "all"); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}

	if _, err := BuildSessions([]SessionEntry{{Name: "  "}}, "all"); err == nil {
		t.Fatalf("expected missing name error")
	}
}
