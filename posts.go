package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/aveuiller/aveuiller.github.io/internal/postdate"
)

// PostMeta is the front-matter of a post as the site engine reads it
type PostMeta struct {
	Title    string
	Slug     string
	Date     time.Time
	Author   string
	Category string
	Tags     string
	Summary  string
}

// postEnvelope keeps Date as text: the engine accepts forms such as
// "2020-10-10 10:20" that the YAML timestamp type rejects.
type postEnvelope struct {
	Title    string `yaml:"Title"`
	Slug     string `yaml:"Slug"`
	Date     string `yaml:"Date"`
	Author   string `yaml:"Author"`
	Category string `yaml:"Category"`
	Tags     string `yaml:"Tags"`
	Summary  string `yaml:"Summary"`
}

// Post is a markdown file below the content directory. Err is set when the
// front-matter could not be fully understood.
type Post struct {
	Path string
	Meta PostMeta
	Body []byte
	Err  error
}

// LoadPost parses the front-matter of the post at path
func LoadPost(path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading post: %w", err)
	}

	var env postEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(data), &env)
	if err != nil {
		return nil, fmt.Errorf("parsing front-matter of %s: %w", path, err)
	}

	post := &Post{
		Path: path,
		Body: body,
		Meta: PostMeta{
			Title:    env.Title,
			Slug:     env.Slug,
			Author:   env.Author,
			Category: env.Category,
			Tags:     env.Tags,
			Summary:  env.Summary,
		},
	}
	if strings.TrimSpace(env.Date) != "" {
		date, err := postdate.Parse(env.Date)
		if err != nil {
			post.Err = fmt.Errorf("parsing Date: %w", err)
		} else {
			post.Meta.Date = date
		}
	}
	return post, nil
}

// ScanPosts loads every markdown post below dir, sorted by path. A post whose
// front-matter cannot be parsed is returned with Err set instead of failing
// the scan.
func ScanPosts(dir string) ([]*Post, error) {
	var posts []*Post
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		post, err := LoadPost(path)
		if err != nil {
			post = &Post{Path: path, Err: err}
		}
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning posts in %s: %w", dir, err)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Path < posts[j].Path })
	return posts, nil
}

// Placeholders returns the header fields that are empty or still TODO
func (p *Post) Placeholders() []string {
	var fields []string
	check := func(name, value string) {
		value = strings.TrimSpace(value)
		if value == "" || value == placeholder {
			fields = append(fields, name)
		}
	}

	check("Title", p.Meta.Title)
	check("Slug", p.Meta.Slug)
	if p.Meta.Date.IsZero() {
		fields = append(fields, "Date")
	}
	check("Author", p.Meta.Author)
	check("Category", p.Meta.Category)
	check("Tags", p.Meta.Tags)
	check("Summary", p.Meta.Summary)
	return fields
}

// FindPostBySlug returns the path of the post carrying slug, or "" when none
// does. Unreadable posts are ignored.
func FindPostBySlug(dir, slug string) string {
	var found string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		post, err := LoadPost(path)
		if err != nil {
			debugLog("skipping %s: %v", path, err)
			return nil
		}
		if post.Meta.Slug == slug {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}
