package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/goliatone/go-slug"
	"github.com/google/renameio/v2"
)

const postDateLayout = "2006-01-02"

var ErrInvalidSlug = errors.New("invalid slug")

//go:embed config/post-header.md.tmpl
var defaultPostHeaderTemplate string

var titleReplacer = strings.NewReplacer("_", " ", "-", " ")

// MetadataPlanner fills in post metadata a human would otherwise write.
type MetadataPlanner interface {
	PlanMetadata(slug, markdown string) (*PostMetadata, error)
}

// ImportOptions tunes a MediumImporter. The zero value reproduces the plain
// import: configured category, TODO placeholders, existing posts replaced.
type ImportOptions struct {
	Category      string
	SkipExisting  bool
	StripFooter   bool
	NormalizeSlug bool
	Planner       MetadataPlanner
}

// MediumImporter turns a Medium HTML export into a blog post
type MediumImporter struct {
	converter     *md.Converter
	header        *template.Template
	settings      *Settings
	planner       MetadataPlanner
	category      string
	skipExisting  bool
	normalizeSlug bool
	now           func() time.Time
}

// NewMediumImporter creates an importer writing below settings.PostsDir()
func NewMediumImporter(settings *Settings, opts ImportOptions) (*MediumImporter, error) {
	header, err := template.New("post-header").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(defaultPostHeaderTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing post header template: %w", err)
	}

	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})
	if opts.StripFooter {
		converter.Remove("footer")
	}

	category := opts.Category
	if category == "" {
		category = settings.Import.Category
	}

	return &MediumImporter{
		converter:     converter,
		header:        header,
		settings:      settings,
		planner:       opts.Planner,
		category:      category,
		skipExisting:  opts.SkipExisting,
		normalizeSlug: opts.NormalizeSlug,
		now:           time.Now,
	}, nil
}

// Import converts the HTML file at htmlPath and writes it as a dated post
func (im *MediumImporter) Import(htmlPath, rawSlug string) (*ImportResult, error) {
	postSlug, err := im.prepareSlug(rawSlug)
	if err != nil {
		return nil, err
	}

	if im.skipExisting {
		if existing := FindPostBySlug(im.settings.PostsDir(), postSlug); existing != "" {
			logger.Info().Str("slug", postSlug).Str("file", existing).Msg("Skipping: post exists")
			return &ImportResult{Slug: postSlug, Status: StatusSkipped, Filename: existing}, nil
		}
	}

	logger.Info().Str("file", htmlPath).Msg("→ Converting")
	markdown, err := im.convertFile(htmlPath)
	if err != nil {
		return nil, err
	}

	date := im.now().Format(postDateLayout)
	header := PostHeader{
		Title:    titleFromSlug(postSlug),
		Slug:     postSlug,
		Date:     date,
		Author:   im.settings.Author,
		Category: im.category,
		Tags:     []string{placeholder},
		Summary:  placeholder,
	}

	if im.planner != nil {
		logger.Info().Str("slug", postSlug).Msg("→ Planning metadata")
		meta, err := im.planner.PlanMetadata(postSlug, markdown)
		if err != nil {
			return nil, fmt.Errorf("planning metadata: %w", err)
		}
		if len(meta.Tags) > 0 {
			header.Tags = meta.Tags
		}
		if meta.Summary != "" {
			header.Summary = strings.ReplaceAll(meta.Summary, `"`, `'`)
		}
	}

	headerText, err := im.renderHeader(header)
	if err != nil {
		return nil, err
	}

	filename := postFilename(im.settings.PostsDir(), date, postSlug)
	if err := writePost(filename, headerText+"\n"+markdown); err != nil {
		return nil, err
	}

	logger.Info().Str("file", filename).Msg("✓ Wrote post")
	return &ImportResult{Slug: postSlug, Status: StatusWritten, Filename: filename}, nil
}

// convertFile reads the HTML export and converts it to markdown
func (im *MediumImporter) convertFile(htmlPath string) (string, error) {
	body, err := os.ReadFile(htmlPath)
	if err != nil {
		return "", fmt.Errorf("reading html file: %w", err)
	}

	markdown, err := im.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}

func (im *MediumImporter) renderHeader(header PostHeader) (string, error) {
	var buf bytes.Buffer
	if err := im.header.Execute(&buf, header); err != nil {
		return "", fmt.Errorf("executing post header template: %w", err)
	}
	return buf.String(), nil
}

// prepareSlug rejects slugs that would escape the posts directory and
// optionally normalizes the rest.
func (im *MediumImporter) prepareSlug(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidSlug, raw)
	}

	if im.normalizeSlug {
		normalized, err := slug.Normalize(value)
		if err != nil {
			return "", fmt.Errorf("%w: normalizing %q: %v", ErrInvalidSlug, raw, err)
		}
		if normalized == "" {
			return "", fmt.Errorf("%w: %q normalizes to nothing", ErrInvalidSlug, raw)
		}
		return normalized, nil
	}

	if !slug.IsValid(value) {
		logger.Warn().Str("slug", value).Msg("slug is not URL-normalized, use --normalize-slug to clean it")
	}
	return value, nil
}

// titleFromSlug turns my_first-post into "my first post"
func titleFromSlug(s string) string {
	return titleReplacer.Replace(s)
}

// postFilename returns <dir>/<date>_<slug>.md
func postFilename(dir, date, postSlug string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.md", date, postSlug))
}

// writePost atomically replaces filename with content
func writePost(filename, content string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("creating posts directory: %w", err)
	}
	if err := renameio.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing post: %w", err)
	}
	return nil
}
