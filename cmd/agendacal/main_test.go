package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agendacal/internal/auth"
	"agendacal/internal/config"
)

func TestBuildSources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources = config.SourcesConfig{
		JSONFiles: []string{"agenda.json", "/srv/legacy.json"},
		SQLite:    "agenda.db",
		Sheets:    []string{"agenda.xlsx"},
		ICS: []config.FeedConfig{
			{ID: "camara", URL: "https://camara.example/sessoes.ics"},
			{ID: "vazio"},
		},
	}

	srcs := buildSources(cfg, "/etc/agendacal", time.UTC)
	var names []string
	for _, s := range srcs {
		names = append(names, s.Name())
	}
	want := []string{"json:agenda.json", "json:legacy.json", "sqlite:agenda.db", "sheet:agenda.xlsx", "ics:camara"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("sources = %v, want %v", names, want)
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	agenda := `{"2025-07-02": [{"title": "Sessão Ordinária", "time": "10:00"}],
	            "2025-07-15": [{"title": "Visita às Comunidades Rurais"}]}`
	if err := os.WriteFile(filepath.Join(dir, "agenda.json"), []byte(agenda), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Sources.JSONFiles = []string{"agenda.json"}
	cfg.LogLevel = "error"
	path := filepath.Join(dir, "agendacal.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin io.Reader, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("agendacal %v: %v", args, err)
	}
	return out.String()
}

func TestRenderText(t *testing.T) {
	path := writeConfig(t)
	out := execute(t, nil, "render", "--config", path, "--year", "2025", "--month", "7", "--width", "1024", "--format", "text", "--events")
	for _, want := range []string{"Julho 2025", "Dom", "15●", "2025-07-02 10:00  Sessão Ordinária", "Visita às Comunidades Rurais"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	path := writeConfig(t)
	out := execute(t, nil, "render", "--config", path, "--year", "2025", "--month", "7", "--width", "375", "--format", "json", "--events=false")
	var v struct {
		Label   string `json:"label"`
		Compact bool   `json:"compact"`
		Cells   []struct {
			Date  string `json:"date"`
			State string `json:"state"`
		} `json:"cells"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if v.Label != "Julho 2025" || !v.Compact || len(v.Cells) != 42 {
		t.Fatalf("view = %+v", v)
	}
	if v.Cells[16].Date != "2025-07-15" || v.Cells[16].State != "event" {
		t.Errorf("cell 16 = %+v", v.Cells[16])
	}
}

func TestHashPasswordFromPipe(t *testing.T) {
	out := execute(t, strings.NewReader("segredo\n"), "hash-password")
	hash := strings.TrimSpace(out)
	ok, err := auth.VerifyPassword("segredo", hash)
	if err != nil || !ok {
		t.Errorf("hash %q does not verify: %v", hash, err)
	}

	if _, err := readPassword(strings.NewReader("\n"), io.Discard); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestFirstHelpers(t *testing.T) {
	if firstNonEmpty("", "b", "c") != "b" || firstNonEmpty() != "" {
		t.Error("firstNonEmpty")
	}
	if firstPositive(0, -1, 7) != 7 || firstPositive(0) != 0 {
		t.Error("firstPositive")
	}
}
