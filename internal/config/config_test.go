package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Defaults.AdminPct != 5 || cfg.Defaults.ContingencyPct != 10 {
		t.Fatalf("defaults admin/contingency = %v/%v, want 5/10", cfg.Defaults.AdminPct, cfg.Defaults.ContingencyPct)
	}
	if cfg.Serve.IntervalSec != 5 {
		t.Fatalf("serve interval = %d, want 5", cfg.Serve.IntervalSec)
	}
}

func TestSaveToLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allot", "config.toml")
	cfg := DefaultConfig()
	cfg.General.BudgetFile = "/srv/film.json"
	cfg.Defaults.GrandTotal = 250000
	cfg.Defaults.Fees = []FeePreset{{Name: "Agency", Type: "percentage", Value: 10}}
	cfg.Defaults.Groups = []GroupTemplate{{Label: "CREW", Categories: []string{"Gaffer", "Grip"}}}
	cfg.Google.SpreadsheetID = "abc123"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.BudgetFile != "/srv/film.json" {
		t.Fatalf("budget_file = %q", got.General.BudgetFile)
	}
	if got.Defaults.GrandTotal != 250000 {
		t.Fatalf("grand_total = %v", got.Defaults.GrandTotal)
	}
	if len(got.Defaults.Fees) != 1 || got.Defaults.Fees[0].Name != "Agency" {
		t.Fatalf("fees = %+v", got.Defaults.Fees)
	}
	if tmpl := GroupTemplates(got); len(tmpl) != 1 || tmpl[0].Categories[1] != "Grip" {
		t.Fatalf("groups = %+v", tmpl)
	}
	if got.Google.SpreadsheetID != "abc123" {
		t.Fatalf("spreadsheet_id = %q", got.Google.SpreadsheetID)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[general]\nbudget_file = \"x.json\"\n\n[[defaults.fees]]\nname = \"Bond\"\ntype = \"fixed\"\nvalue = 1200\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.BudgetFile != "x.json" {
		t.Fatalf("budget_file = %q", cfg.General.BudgetFile)
	}
	if cfg.Defaults.AdminPct != 5 {
		t.Fatalf("admin_pct = %v, want default 5", cfg.Defaults.AdminPct)
	}
	if len(cfg.Defaults.Fees) != 1 || cfg.Defaults.Fees[0].Value != 1200 {
		t.Fatalf("fees = %+v", cfg.Defaults.Fees)
	}
	if n := len(GroupTemplates(cfg)); n != 4 {
		t.Fatalf("default group templates = %d, want 4", n)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom accepted invalid TOML")
	}
}

func TestDefaultGroupsShape(t *testing.T) {
	sizes := []int{4, 10, 4, 3}
	groups := DefaultGroups()
	if len(groups) != len(sizes) {
		t.Fatalf("got %d groups", len(groups))
	}
	for i, g := range groups {
		if len(g.Categories) != sizes[i] {
			t.Errorf("%s has %d categories, want %d", g.Label, len(g.Categories), sizes[i])
		}
	}
}

func TestGetGoogleCredentials_EnvWins(t *testing.T) {
	t.Setenv("ALLOT_GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	cfg := DefaultConfig()
	cfg.Google.CredentialsFile = "/tmp/key.json"

	inline, file := GetGoogleCredentials(cfg)
	if inline == "" || file != "/tmp/key.json" {
		t.Fatalf("got %q, %q", inline, file)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigPath(); got != filepath.Join("/xdg", "allot", "config.toml") {
		t.Fatalf("ConfigPath = %q", got)
	}
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DataDir(); got != filepath.Join("/data", "allot") {
		t.Fatalf("DataDir = %q", got)
	}
}
