package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configDir string
	envName   string
	debugMode bool

	apiKey        string
	category      string
	planMode      bool
	skipExisting  bool
	stripFooter   bool
	normalizeSlug bool

	renderOutput  string
	strictCheck   bool
	previewOutput string
)

var rootCmd = &cobra.Command{
	Use:           "blog",
	Short:         "Tooling for the aveuiller.github.io Pelican site",
	Long:          `Manages the Pelican settings of every site environment and imports Medium articles as posts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(debugMode)
	},
}

var importMediumCmd = &cobra.Command{
	Use:   "import-medium <html_path> <slug>",
	Short: "Convert an exported Medium article into a blog post",
	Args:  cobra.MatchAll(cobra.ExactArgs(2), existingPathArg(0)),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, err := loadEnvSettings()
		if err != nil {
			return err
		}

		opts := ImportOptions{
			Category:      category,
			SkipExisting:  skipExisting,
			StripFooter:   stripFooter,
			NormalizeSlug: normalizeSlug,
		}
		if opts.Category == "" {
			opts.Category = settings.Import.Category
		}

		if planMode {
			if apiKey == "" {
				apiKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			planner, err := NewAgentPlanner(apiKey, opts.Category, settings.Import.Planner)
			if err != nil {
				return err
			}
			opts.Planner = planner
		}

		importer, err := NewMediumImporter(settings, opts)
		if err != nil {
			return fmt.Errorf("creating importer: %w", err)
		}

		result, err := importer.Import(args[0], args[1])
		if err != nil {
			return fmt.Errorf("importing %s: %w", args[0], err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Filename)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and render the site settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings of every environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		written, err := ensureConfigExists(configDir)
		if err != nil {
			return err
		}
		for _, path := range written {
			logger.Info().Str("file", path).Msg("✓ Wrote default settings")
		}
		if len(written) == 0 {
			logger.Info().Str("dir", configDir).Msg("Settings already present")
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved settings of an environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, err := loadEnvSettings()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("encoding settings: %w", err)
		}
		return enc.Close()
	},
}

var configRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the Pelican settings module of an environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, env, err := loadEnvSettings()
		if err != nil {
			return err
		}
		if renderOutput == "-" {
			return RenderPelicanConf(cmd.OutOrStdout(), settings, env)
		}

		path := renderOutput
		if path == "" {
			path = pelicanConfFile(env)
		}
		logger.Info().Str("env", string(env)).Str("file", path).Msg("→ Rendering settings")
		if err := WritePelicanConf(path, settings, env); err != nil {
			return err
		}
		logger.Info().Str("file", path).Msg("✓ Rendered settings")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "List posts whose front-matter still has placeholders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, _, err := loadEnvSettings()
		if err != nil {
			return err
		}
		posts, err := ScanPosts(settings.PostsDir())
		if err != nil {
			return err
		}

		incomplete := 0
		for _, post := range posts {
			if post.Err != nil {
				incomplete++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", post.Path, post.Err)
				continue
			}
			fields := post.Placeholders()
			if len(fields) == 0 {
				continue
			}
			incomplete++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", post.Path, fields)
		}
		logger.Info().Int("posts", len(posts)).Int("incomplete", incomplete).Msg("Checked posts")

		if strictCheck && incomplete > 0 {
			return fmt.Errorf("%d of %d posts have placeholders or unreadable front-matter", incomplete, len(posts))
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <post.md>",
	Short: "Render a post to an HTML fragment",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), existingPathArg(0)),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := LoadPost(args[0])
		if err != nil {
			return err
		}
		if previewOutput == "" {
			return RenderPreview(cmd.OutOrStdout(), post)
		}

		var buf bytes.Buffer
		if err := RenderPreview(&buf, post); err != nil {
			return err
		}
		if err := renameio.WriteFile(previewOutput, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing preview: %w", err)
		}
		logger.Info().Str("file", previewOutput).Msg("✓ Wrote preview")
		return nil
	},
}

// loadEnvSettings resolves and validates the settings selected by --env
func loadEnvSettings() (*Settings, Environment, error) {
	env, err := ParseEnvironment(envName)
	if err != nil {
		return nil, "", err
	}
	settings, err := LoadSettings(configDir, env)
	if err != nil {
		return nil, "", fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid %s settings: %w", env, err)
	}
	return settings, env, nil
}

// existingPathArg fails argument validation when args[i] does not exist
func existingPathArg(i int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if i >= len(args) {
			return fmt.Errorf("missing argument %d", i+1)
		}
		if _, err := os.Stat(args[i]); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("path %q does not exist", args[i])
			}
			return fmt.Errorf("checking %q: %w", args[i], err)
		}
		return nil
	}
}

func init() {
	defaultEnv := os.Getenv("BLOG_ENV")
	if defaultEnv == "" {
		defaultEnv = string(EnvLocal)
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", defaultConfigDir, "Directory holding the settings files")
	rootCmd.PersistentFlags().StringVar(&envName, "env", defaultEnv, "Site environment: local, staging or production")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	importMediumCmd.Flags().StringVar(&category, "category", "", "Category of the post (defaults to import.category)")
	importMediumCmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Do nothing when a post with this slug exists")
	importMediumCmd.Flags().BoolVar(&stripFooter, "strip-footer", false, "Drop the footer Medium adds to exports")
	importMediumCmd.Flags().BoolVar(&normalizeSlug, "normalize-slug", false, "Normalize the slug before using it")
	importMediumCmd.Flags().BoolVar(&planMode, "plan", false, "Ask Claude for the tags and summary")
	importMediumCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key")

	configRenderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file, - for stdout (defaults to the Pelican file of the environment)")
	checkCmd.Flags().BoolVar(&strictCheck, "strict", false, "Fail when a post has placeholders or unreadable front-matter")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Output file (defaults to stdout)")

	configCmd.AddCommand(configInitCmd, configShowCmd, configRenderCmd)
	rootCmd.AddCommand(importMediumCmd, configCmd, checkCmd, previewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
