package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/libria/internal/domain"
)

const listPayload = `[
  {"id": 1, "names": ["Бета", "Beta"], "year": "2019", "last": "10", "genres": ["Драма"]},
  {"id": 2, "names": ["Альфа", "Alpha"], "year": "2021", "last": "30", "genres": ["Комедия"]},
  {"id": 3, "names": ["Гамма", "Gamma"], "year": "2020", "last": "20", "genres": ["Драма", "Комедия"]}
]`

// setupConfig writes a config that keeps every file inside a temp dir.
func setupConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := "storage:\n  backend: file\n  dir: " + filepath.Join(dir, "data") + "\n" +
		"logging:\n  file: " + filepath.Join(dir, "libria.log") + "\n"
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("libria %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestMergeQueryAndDocuments(t *testing.T) {
	cfg := setupConfig(t)
	payloadPath := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(payloadPath, []byte(listPayload), 0o644); err != nil {
		t.Fatal(err)
	}

	out := execute(t, "--config", cfg, "merge", payloadPath)
	if !strings.Contains(out, "added 3") {
		t.Fatalf("merge output = %q", out)
	}

	out = execute(t, "--config", cfg, "query", "--format", "json", "--sort", "title", "--desc=false", "--genres", "Драма")
	var page []domain.Release
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("query output is not JSON: %v\n%s", err, out)
	}
	if len(page) != 2 || page[0].ID != 1 || page[1].ID != 3 {
		t.Fatalf("page = %+v", page)
	}

	out = execute(t, "--config", cfg, "query", "--format", "table", "--sort", "updated", "--desc", "--genres", "")
	if !strings.Contains(out, "Альфа") || strings.Index(out, "Альфа") > strings.Index(out, "Бета") {
		t.Fatalf("table output = %q", out)
	}

	execute(t, "--config", cfg, "favorites", "set", "[3, 1]")
	out = execute(t, "--config", cfg, "favorites")
	var favs []int
	if err := json.Unmarshal([]byte(out), &favs); err != nil || len(favs) != 2 || favs[0] != 3 {
		t.Fatalf("favorites = %q (%v)", out, err)
	}

	out = execute(t, "--config", cfg, "release", "2")
	if !strings.Contains(out, `"title":"Альфа"`) {
		t.Fatalf("release output = %q", out)
	}

	out = execute(t, "--config", cfg, "changes", "--reset=false")
	var changes domain.Changes
	if err := json.Unmarshal([]byte(out), &changes); err != nil || len(changes.NewReleases) != 3 {
		t.Fatalf("changes = %q (%v)", out, err)
	}

	out = execute(t, "--config", cfg, "changes", "--reset=false", "--summary")
	if want := "new releases: 3, new episodes: 0, new torrents: 0"; !strings.Contains(out, want) {
		t.Fatalf("changes summary = %q, want %q", out, want)
	}

	execute(t, "--config", cfg, "changes", "--reset", "--summary=false")
	out = execute(t, "--config", cfg, "changes", "--reset=false", "--summary=false")
	if err := json.Unmarshal([]byte(out), &changes); err != nil || len(changes.NewReleases) != 0 {
		t.Fatalf("changes after reset = %q (%v)", out, err)
	}
	out = execute(t, "--config", cfg, "changes", "--reset=false", "--summary")
	if strings.TrimSpace(out) != "No changes." {
		t.Fatalf("changes summary after reset = %q", out)
	}
}

func TestGenreAndVoiceFacets(t *testing.T) {
	cfg := setupConfig(t)
	payloadPath := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(payloadPath, []byte(listPayload), 0o644); err != nil {
		t.Fatal(err)
	}
	execute(t, "--config", cfg, "merge", payloadPath)

	if out := execute(t, "--config", cfg, "genres"); out != "Драма\nКомедия\n" {
		t.Fatalf("genres = %q", out)
	}
	if out := execute(t, "--config", cfg, "genres", "ком"); out != "Комедия\n" {
		t.Fatalf("genres ком = %q", out)
	}
	// Releases without voices carry the placeholder, which is not a facet value.
	if out := execute(t, "--config", cfg, "voices"); out != "" {
		t.Fatalf("voices = %q, want none", out)
	}
}

func TestQueryTitleFlagDescribesMatch(t *testing.T) {
	flag := newQueryCmd().Flags().Lookup("title")
	if flag == nil || flag.Usage != "Substring of the title" {
		t.Fatalf("title flag = %+v", flag)
	}
}

func TestParseSortField(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.SortField
		wantErr bool
	}{
		{in: "title", want: domain.SortTitle},
		{in: " Year ", want: domain.SortYear},
		{in: "9", want: domain.SortSeason},
		{in: "watch-history", want: domain.SortWatchHistory},
		{in: "popularity", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseSortField(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseSortField(%q) err = %v", tt.in, err)
		}
		if err == nil && got != tt.want {
			t.Errorf("parseSortField(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSection(t *testing.T) {
	for in, want := range map[string]domain.Section{
		"":          domain.SectionNone,
		"all":       domain.SectionNone,
		"favorites": domain.SectionFavorites,
		"scheduled": domain.SectionScheduled,
		"5":         domain.SectionScheduled,
	} {
		got, err := parseSection(in)
		if err != nil || got != want {
			t.Errorf("parseSection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseSection("watched"); err == nil {
		t.Error("expected an error for an unknown section")
	}
}
