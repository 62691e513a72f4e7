// Package seed loads categories and posts from a folder of Markdown files and removes them again.
package seed

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta is the YAML front matter of a seed document.
type Meta struct {
	Title        string   `yaml:"title"`
	CategoryPath []string `yaml:"categoryPath"`
	AuthorNick   string   `yaml:"authorNick"`
	CreatedAt    string   `yaml:"createdAt"`
	UpdateMode   string   `yaml:"updateMode"`
}

// Upsert reports whether an existing post should be overwritten.
func (m Meta) Upsert() bool {
	return strings.EqualFold(strings.TrimSpace(m.UpdateMode), "upsert")
}

// Document is one Markdown file resolved against the folder tree.
type Document struct {
	Path         string
	CategoryPath []string
	Title        string
	Meta         Meta
	Content      string
}

// Label is the human readable "[A > B] title" form used in reports.
func (d Document) Label() string {
	return fmt.Sprintf("[%s] %s", strings.Join(d.CategoryPath, " > "), d.Title)
}

var (
	frontMatterFence = []byte("---")
	titlePrefix      = regexp.MustCompile(`^[\d._-]+\s*`)
	titleSeparators  = regexp.MustCompile(`[-_]+`)
	spaces           = regexp.MustCompile(`\s+`)
)

// ParseFrontMatter splits raw into its front matter and body. A document
// without front matter, or with front matter that does not parse, keeps its
// whole text as the body.
func ParseFrontMatter(raw []byte) (Meta, string) {
	var meta Meta
	text := bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(text, frontMatterFence) {
		return meta, string(raw)
	}
	rest := text[len(frontMatterFence):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return meta, string(raw)
	}
	rest = rest[nl+1:]

	end := -1
	for off := 0; off < len(rest); {
		line := rest[off:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if bytes.Equal(bytes.TrimRight(line, " \t\r"), frontMatterFence) {
			end = off
			break
		}
		off += len(line) + 1
	}
	if end < 0 {
		return meta, string(raw)
	}

	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return Meta{}, string(raw)
	}
	body := rest[end+len(frontMatterFence):]
	body = bytes.TrimLeft(bytes.TrimLeft(body, " \t\r"), "\n")
	return meta, string(body)
}

// DeriveTitle turns "01-getting_started.md" into "getting started".
func DeriveTitle(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = titlePrefix.ReplaceAllString(base, "")
	base = titleSeparators.ReplaceAllString(base, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(base, " "))
}

// ParseCreatedAt accepts RFC 3339 timestamps and plain dates; anything else yields nil.
func ParseCreatedAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func trimPath(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// LoadDocuments walks root and returns every Markdown file that resolves to a
// category path and a title. Hidden entries are skipped, and so are files at
// the root without a categoryPath.
func LoadDocuments(root string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		meta, body := ParseFrontMatter(raw)

		categoryPath := trimPath(meta.CategoryPath)
		if len(categoryPath) == 0 {
			categoryPath, err = dirPath(root, filepath.Dir(path))
			if err != nil {
				return err
			}
		}
		if len(categoryPath) == 0 {
			return nil
		}
		title := strings.TrimSpace(meta.Title)
		if title == "" {
			title = DeriveTitle(d.Name())
		}
		if title == "" {
			return nil
		}
		docs = append(docs, Document{
			Path:         path,
			CategoryPath: categoryPath,
			Title:        title,
			Meta:         meta,
			Content:      body,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// CategoryDirs returns the category path of every directory below root, deepest first.
func CategoryDirs(root string) ([][]string, error) {
	var paths [][]string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if hidden(d.Name()) {
			return filepath.SkipDir
		}
		p, err := dirPath(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(paths, func(i, j int) bool { return len(paths[i]) > len(paths[j]) })
	return paths, nil
}

func dirPath(root, dir string) ([]string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if rel == "." {
		return nil, nil
	}
	return trimPath(strings.Split(filepath.ToSlash(rel), "/")), nil
}
