package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `
source:
  json:
    url: "https://api.example.com/items"
watch:
  iterations: 10
  interval: 30s
storage:
  path: /tmp/dw.db
tagged:
  field: categories
  values: ["featured"]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source.JSON.URL != "https://api.example.com/items" {
		t.Errorf("json url = %q", cfg.Source.JSON.URL)
	}
	if cfg.Watch.Iterations != 10 {
		t.Errorf("iterations = %d, want 10", cfg.Watch.Iterations)
	}
	if cfg.Watch.Interval.Duration != 30*time.Second {
		t.Errorf("interval = %s, want 30s", cfg.Watch.Interval.Duration)
	}
	if cfg.Storage.Path != "/tmp/dw.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Tagged.Field != "categories" || len(cfg.Tagged.Values) != 1 {
		t.Errorf("tagged = %+v", cfg.Tagged)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := writeConfig(t, `
source:
  rss:
    feeds:
      - "https://example.com/feed.xml"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("storage path = %q, want default", cfg.Storage.Path)
	}
	if cfg.Watch.Iterations != DefaultIterations {
		t.Errorf("iterations = %d, want default %d", cfg.Watch.Iterations, DefaultIterations)
	}
	if cfg.Watch.Interval.Duration != DefaultInterval {
		t.Errorf("interval = %s, want default %s", cfg.Watch.Interval.Duration, DefaultInterval)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no source",
			content: "watch:\n  iterations: 3\n",
			wantErr: "either a json url or rss feeds",
		},
		{
			name: "both sources",
			content: `
source:
  json:
    url: "https://a.example.com"
  rss:
    feeds: ["https://b.example.com/feed.xml"]
`,
			wantErr: "not both",
		},
		{
			name: "negative iterations",
			content: `
source:
  json:
    url: "https://a.example.com"
watch:
  iterations: -2
`,
			wantErr: "watch.iterations",
		},
		{
			name: "tagged values without field",
			content: `
source:
  json:
    url: "https://a.example.com"
tagged:
  values: ["featured"]
`,
			wantErr: "tagged.field",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeConfig(t, tc.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("load should fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_BadDuration(t *testing.T) {
	dir := writeConfig(t, `
source:
  json:
    url: "https://a.example.com"
watch:
  interval: "soon"
`)
	if _, err := Load(dir); err == nil {
		t.Error("unparseable duration should fail")
	}
}

func TestLoad_StoragePathEnv(t *testing.T) {
	t.Setenv("DRIFTWATCH_TEST_HOME", "/var/data")
	dir := writeConfig(t, `
source:
  json:
    url: "https://a.example.com"
storage:
  path: "${DRIFTWATCH_TEST_HOME}/driftwatch.db"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.Storage.Path, "/var/data/driftwatch.db"; got != want {
		t.Errorf("storage path = %q, want %q", got, want)
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Error("empty dir should be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing config file should fail")
	}
}
