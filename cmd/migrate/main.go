package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aveuiller/aveuiller.github.io/internal/postdate"
)

type postHeader struct {
	Slug string `yaml:"Slug"`
	Date string `yaml:"Date"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if len(os.Args) < 3 {
		log.Fatal().Msg("Usage: migrate <rename|remove-duplicates> <posts-directory>")
	}

	command := os.Args[1]
	postsDir := os.Args[2]

	switch command {
	case "rename":
		renamed, err := renamePosts(postsDir)
		if err != nil {
			log.Fatal().Err(err).Msg("rename failed")
		}
		log.Info().Int("renamed", renamed).Msg("Done")
	case "remove-duplicates":
		if err := removeDuplicates(postsDir, os.Stdin, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("remove-duplicates failed")
		}
	default:
		log.Fatal().Str("command", command).Msg("Unknown command")
	}
}

// walkPosts calls fn for every markdown file below dir with its parsed header
func walkPosts(dir string, fn func(path string, header postHeader)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		header, err := readHeader(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable post")
			return nil
		}
		fn(path, header)
		return nil
	})
}

func readHeader(path string) (postHeader, error) {
	var header postHeader
	content, err := os.ReadFile(path)
	if err != nil {
		return header, fmt.Errorf("reading file %s: %w", path, err)
	}
	if _, err := frontmatter.Parse(bytes.NewReader(content), &header); err != nil {
		return header, fmt.Errorf("parsing front-matter: %w", err)
	}
	return header, nil
}

// expectedName returns <date>_<slug>.md, or "" when the header lacks either
func expectedName(header postHeader) string {
	if header.Slug == "" || strings.TrimSpace(header.Date) == "" {
		return ""
	}
	date, err := postdate.Parse(header.Date)
	if err != nil {
		log.Warn().Err(err).Str("slug", header.Slug).Msg("Unparseable Date")
		return ""
	}
	return fmt.Sprintf("%s_%s.md", date.Format("2006-01-02"), header.Slug)
}

// renamePosts renames every post to match its front-matter date and slug
func renamePosts(postsDir string) (int, error) {
	type move struct{ from, to string }
	var moves []move

	err := walkPosts(postsDir, func(path string, header postHeader) {
		name := expectedName(header)
		if name == "" {
			log.Info().Str("file", path).Msg("No Date or Slug, skipping")
			return
		}
		if filepath.Base(path) == name {
			return
		}
		moves = append(moves, move{from: path, to: filepath.Join(filepath.Dir(path), name)})
	})
	if err != nil {
		return 0, fmt.Errorf("walking directory: %w", err)
	}

	renamed := 0
	for _, m := range moves {
		if _, err := os.Stat(m.to); err == nil {
			log.Warn().Str("file", m.from).Str("target", m.to).Msg("Target exists, skipping")
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return renamed, fmt.Errorf("checking %s: %w", m.to, err)
		}

		log.Info().Msgf("Renaming %s -> %s", filepath.Base(m.from), filepath.Base(m.to))
		if err := os.Rename(m.from, m.to); err != nil {
			return renamed, fmt.Errorf("renaming %s: %w", m.from, err)
		}
		renamed++
	}
	return renamed, nil
}

// removeDuplicates keeps the first post of every slug and asks before
// deleting the others
func removeDuplicates(postsDir string, in io.Reader, out io.Writer) error {
	slugToFiles := make(map[string][]string)
	reader := bufio.NewReader(in)

	if err := walkPosts(postsDir, func(path string, header postHeader) {
		if header.Slug != "" {
			slugToFiles[header.Slug] = append(slugToFiles[header.Slug], path)
		}
	}); err != nil {
		return fmt.Errorf("walking directory: %w", err)
	}

	slugs := make([]string, 0, len(slugToFiles))
	for s := range slugToFiles {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	totalRemoved := 0
	for _, s := range slugs {
		files := slugToFiles[s]
		if len(files) <= 1 {
			continue
		}

		fmt.Fprintf(out, "\nFound %d posts with slug %s:\n", len(files), s)
		for i, file := range files {
			fileName := filepath.Base(file)
			if i == 0 {
				fmt.Fprintf(out, "  KEEP: %s\n", fileName)
				continue
			}

			if confirmDelete(reader, out, file) {
				if err := os.Remove(file); err != nil {
					log.Error().Err(err).Str("file", file).Msg("Error removing post")
				} else {
					totalRemoved++
					fmt.Fprintf(out, "  REMOVED: %s\n", fileName)
				}
			} else {
				fmt.Fprintf(out, "  SKIP: %s\n", fileName)
			}
		}
	}

	fmt.Fprintf(out, "\nRemoved %d duplicate posts\n", totalRemoved)
	return nil
}

func confirmDelete(reader *bufio.Reader, out io.Writer, path string) bool {
	for {
		fmt.Fprintf(out, "  DELETE %s? [y/N]: ", filepath.Base(path))
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			if !errors.Is(err, io.EOF) {
				log.Error().Err(err).Msg("Error reading input")
			}
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Fprintln(out, "  Please enter y or n.")
			if err != nil {
				return false
			}
		}
	}
}
