package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = "settings"

// Environment identifies one of the site configuration variants.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvProduction Environment = "production"
	EnvStaging    Environment = "staging"
)

var ErrUnknownEnvironment = errors.New("unknown environment")

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/production.yaml
var defaultProductionSettings string

//go:embed config/staging.yaml
var defaultStagingSettings string

// SocialLink is one entry of the social widget.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FeedSettings holds the feed paths. An empty path disables the feed.
type FeedSettings struct {
	AllAtom         string `yaml:"all_atom"`
	CategoryAtom    string `yaml:"category_atom"`
	TranslationAtom string `yaml:"translation_atom"`
	AuthorAtom      string `yaml:"author_atom"`
	AuthorRSS       string `yaml:"author_rss"`
}

// AgentSettings configures the planner agent used by import-medium --plan.
type AgentSettings struct {
	Model            string  `yaml:"model"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	ContentMaxTokens int     `yaml:"content_max_tokens"`
}

// ImportSettings drives where and how imported posts are written.
type ImportSettings struct {
	PostsDir string        `yaml:"posts_dir"`
	Category string        `yaml:"category"`
	Planner  AgentSettings `yaml:"planner"`
}

// Settings represents the YAML configuration of one site environment
type Settings struct {
	Author                string         `yaml:"author"`
	SiteName              string         `yaml:"sitename"`
	SiteURL               string         `yaml:"siteurl"`
	Theme                 string         `yaml:"theme"`
	RelativeURLs          bool           `yaml:"relative_urls"`
	Path                  string         `yaml:"path"`
	OutputPath            string         `yaml:"output_path"`
	Timezone              string         `yaml:"timezone"`
	DefaultLang           string         `yaml:"default_lang"`
	Feeds                 FeedSettings   `yaml:"feeds"`
	DeleteOutputDirectory bool           `yaml:"delete_output_directory"`
	PluginPaths           []string       `yaml:"plugin_paths"`
	Plugins               []string       `yaml:"plugins"`
	Social                []SocialLink   `yaml:"social"`
	DefaultPagination     int            `yaml:"default_pagination"`
	DirectTemplates       []string       `yaml:"direct_templates"`
	Import                ImportSettings `yaml:"import"`
}

// PostsDir returns the directory imported posts are written to.
func (s *Settings) PostsDir() string {
	return filepath.Join(s.Path, s.Import.PostsDir)
}

// Validate checks that the keys the site engine cannot do without are present.
func (s *Settings) Validate() error {
	var errs []error
	required := []struct {
		key   string
		value string
	}{
		{"author", s.Author},
		{"siteurl", s.SiteURL},
		{"theme", s.Theme},
		{"path", s.Path},
		{"output_path", s.OutputPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("missing required setting %q", r.key))
		}
	}
	return errors.Join(errs...)
}

// ParseEnvironment maps a user supplied name onto a known environment.
func ParseEnvironment(name string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local", "dev", "development":
		return EnvLocal, nil
	case "production", "prod", "publish":
		return EnvProduction, nil
	case "staging":
		return EnvStaging, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}
}

// settingsFile returns the file name holding the environment overlay.
// The local environment is the base file itself.
func (e Environment) settingsFile() string {
	if e == EnvLocal {
		return "settings.yaml"
	}
	return string(e) + ".yaml"
}

func (e Environment) embeddedSettings() string {
	switch e {
	case EnvProduction:
		return defaultProductionSettings
	case EnvStaging:
		return defaultStagingSettings
	default:
		return defaultSettings
	}
}

// LoadSettings reads the base settings from dir and overlays the environment
// file on top of them. Keys absent from the overlay keep their base value.
func LoadSettings(dir string, env Environment) (*Settings, error) {
	var settings Settings

	base, err := readSettingsFile(dir, EnvLocal)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(base, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvLocal.settingsFile(), err)
	}

	if env != EnvLocal {
		overlay, err := readSettingsFile(dir, env)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(overlay, &settings); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", env.settingsFile(), err)
		}
	}

	applyEnvOverrides(&settings)

	if settings.SiteName == "" {
		settings.SiteName = settings.Author
	}
	if settings.Import.PostsDir == "" {
		settings.Import.PostsDir = "posts"
	}

	return &settings, nil
}

// readSettingsFile reads the environment file from dir, falling back to the
// embedded default when the file does not exist.
func readSettingsFile(dir string, env Environment) ([]byte, error) {
	path := filepath.Join(dir, env.settingsFile())
	data, err := os.ReadFile(path)
	if err == nil {
		logger.Debug().Str("file", path).Msg("loaded settings")
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	logger.Debug().Str("file", path).Msg("settings file missing, using embedded defaults")
	return []byte(env.embeddedSettings()), nil
}

// applyEnvOverrides lets CI pick the site URL, output path and theme without
// editing the settings files.
func applyEnvOverrides(s *Settings) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"BLOG_SITEURL", &s.SiteURL},
		{"BLOG_OUTPUT_PATH", &s.OutputPath},
		{"BLOG_THEME", &s.Theme},
	}
	for _, o := range overrides {
		value, ok := os.LookupEnv(o.key)
		if !ok || value == "" {
			continue
		}
		logger.Debug().
			Str("key", o.key).
			Str("value", value).
			Str("source", "environment").
			Msg("overriding setting")
		*o.target = value
	}
}

// ensureConfigExists creates the settings directory and writes the embedded
// defaults for every environment that has no file yet
func ensureConfigExists(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	var written []string
	for _, env := range []Environment{EnvLocal, EnvProduction, EnvStaging} {
		path := filepath.Join(dir, env.settingsFile())
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("checking %s: %w", path, err)
		}
		if err := renameio.WriteFile(path, []byte(env.embeddedSettings()), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
