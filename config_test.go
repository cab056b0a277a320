package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Environment
		wantErr bool
	}{
		{"empty defaults to local", "", EnvLocal, false},
		{"local", "local", EnvLocal, false},
		{"dev alias", "dev", EnvLocal, false},
		{"production", "production", EnvProduction, false},
		{"publish alias", "Publish", EnvProduction, false},
		{"staging", " staging ", EnvStaging, false},
		{"unknown", "qa", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEnvironment(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownEnvironment) {
					t.Errorf("ParseEnvironment(%q) error = %v, want ErrUnknownEnvironment", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEnvironment(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseEnvironment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadSettingsEmbeddedDefaults(t *testing.T) {
	settings, err := LoadSettings(t.TempDir(), EnvLocal)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if settings.Author != "Antoine Veuiller" {
		t.Errorf("Author = %q", settings.Author)
	}
	if settings.SiteName != settings.Author {
		t.Errorf("SiteName = %q, want it to default to the author", settings.SiteName)
	}
	if settings.Theme != "themes/plumage" {
		t.Errorf("Theme = %q", settings.Theme)
	}
	if !settings.RelativeURLs {
		t.Error("local settings should use relative URLs")
	}
	if settings.DefaultPagination != 10 {
		t.Errorf("DefaultPagination = %d, want 10", settings.DefaultPagination)
	}
	if settings.Feeds != (FeedSettings{}) {
		t.Errorf("local feeds should be disabled, got %+v", settings.Feeds)
	}

	wantTemplates := []string{"index", "tags", "categories", "authors", "archives", "search"}
	if diff := cmp.Diff(wantTemplates, settings.DirectTemplates); diff != "" {
		t.Errorf("DirectTemplates mismatch (-want +got):\n%s", diff)
	}

	wantSocial := []SocialLink{
		{Name: "Twitter", URL: "http://twitter.com/AVeuiller"},
		{Name: "StackOverflow", URL: "https://stackoverflow.com/users/2564085/aveuiller"},
		{Name: "GitHub", URL: "http://github.com/aveuiller"},
		{Name: "Medium", URL: "https://aveuiller.medium.com/"},
	}
	if diff := cmp.Diff(wantSocial, settings.Social); diff != "" {
		t.Errorf("Social mismatch (-want +got):\n%s", diff)
	}

	if got := settings.PostsDir(); got != filepath.Join("content", "posts") {
		t.Errorf("PostsDir() = %q", got)
	}
}

func TestLoadSettingsProductionOverlay(t *testing.T) {
	settings, err := LoadSettings(t.TempDir(), EnvProduction)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if settings.RelativeURLs {
		t.Error("production should not use relative URLs")
	}
	if !settings.DeleteOutputDirectory {
		t.Error("production should delete the output directory")
	}
	if settings.Feeds.AllAtom != "feeds/all.atom.xml" {
		t.Errorf("Feeds.AllAtom = %q", settings.Feeds.AllAtom)
	}
	if settings.Feeds.AuthorRSS != "" {
		t.Errorf("Feeds.AuthorRSS = %q, want it left disabled", settings.Feeds.AuthorRSS)
	}
	// keys absent from the overlay keep their base value
	if settings.Author != "Antoine Veuiller" || settings.Theme != "themes/plumage" {
		t.Errorf("base keys lost: author=%q theme=%q", settings.Author, settings.Theme)
	}
	if len(settings.Social) != 4 {
		t.Errorf("Social has %d entries, want 4", len(settings.Social))
	}
}

func TestLoadSettingsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	base := "author: Jane Doe\nsiteurl: https://jane.example\ntheme: themes/simple\npath: content\noutput_path: output\ndefault_pagination: 5\nplugins: [a, b]\n"
	staging := "siteurl: https://staging.jane.example\nplugins: [c]\n"
	os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(base), 0644)
	os.WriteFile(filepath.Join(dir, "staging.yaml"), []byte(staging), 0644)

	settings, err := LoadSettings(dir, EnvStaging)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if settings.SiteURL != "https://staging.jane.example" {
		t.Errorf("SiteURL = %q", settings.SiteURL)
	}
	if settings.DefaultPagination != 5 {
		t.Errorf("DefaultPagination = %d, want 5", settings.DefaultPagination)
	}
	if diff := cmp.Diff([]string{"c"}, settings.Plugins); diff != "" {
		t.Errorf("overlay lists should replace base lists (-want +got):\n%s", diff)
	}
	if settings.SiteName != "Jane Doe" {
		t.Errorf("SiteName = %q", settings.SiteName)
	}
	if settings.Import.PostsDir != "posts" {
		t.Errorf("Import.PostsDir = %q, want posts", settings.Import.PostsDir)
	}
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("author: [unterminated"), 0644)

	if _, err := LoadSettings(dir, EnvLocal); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("BLOG_SITEURL", "https://preview.example")
	t.Setenv("BLOG_OUTPUT_PATH", "public")
	t.Setenv("BLOG_THEME", "")

	settings, err := LoadSettings(t.TempDir(), EnvProduction)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}

	if settings.SiteURL != "https://preview.example" {
		t.Errorf("SiteURL = %q", settings.SiteURL)
	}
	if settings.OutputPath != "public" {
		t.Errorf("OutputPath = %q", settings.OutputPath)
	}
	if settings.Theme != "themes/plumage" {
		t.Errorf("empty BLOG_THEME should not override, got %q", settings.Theme)
	}
}

func TestSettingsValidate(t *testing.T) {
	valid := Settings{
		Author:     "Antoine Veuiller",
		SiteURL:    "https://aveuiller.github.io",
		Theme:      "themes/plumage",
		Path:       "content",
		OutputPath: "output",
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		missing []string
	}{
		{"valid", func(*Settings) {}, nil},
		{"missing author", func(s *Settings) { s.Author = "" }, []string{`"author"`}},
		{"blank theme and path", func(s *Settings) { s.Theme = "  "; s.Path = "" }, []string{`"theme"`, `"path"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()

			if len(tt.missing) == 0 {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			for _, key := range tt.missing {
				if !strings.Contains(err.Error(), key) {
					t.Errorf("Validate() error %q does not mention %s", err, key)
				}
			}
		})
	}
}

func TestEnsureConfigExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "settings")

	written, err := ensureConfigExists(dir)
	if err != nil {
		t.Fatalf("ensureConfigExists() error = %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("wrote %d files, want 3", len(written))
	}
	for _, env := range []Environment{EnvLocal, EnvProduction, EnvStaging} {
		content, err := os.ReadFile(filepath.Join(dir, env.settingsFile()))
		if err != nil {
			t.Fatalf("reading %s settings: %v", env, err)
		}
		if string(content) != env.embeddedSettings() {
			t.Errorf("%s settings differ from the embedded defaults", env)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("settings dir holds %d entries, want 3 (no temporary files)", len(entries))
	}

	custom := []byte("author: Someone Else\n")
	settingsPath := filepath.Join(dir, "settings.yaml")
	os.WriteFile(settingsPath, custom, 0644)

	written, err = ensureConfigExists(dir)
	if err != nil {
		t.Fatalf("second ensureConfigExists() error = %v", err)
	}
	if len(written) != 0 {
		t.Errorf("second run wrote %v, want nothing", written)
	}

	content, _ := os.ReadFile(settingsPath)
	if string(content) != string(custom) {
		t.Error("ensureConfigExists() overwrote an existing file")
	}
}
