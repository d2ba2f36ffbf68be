package blog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/russross/blackfriday/v2"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPath is returned for names that resolve outside the blog directory.
	ErrInvalidPath = errors.New("invalid blog path")
	// ErrNotFound is returned when no post file exists under the name.
	ErrNotFound = errors.New("blog post not found")
)

// Post is a listing entry.
type Post struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// Rendered is a post converted to HTML.
type Rendered struct {
	Filename string
	Title    string
	HTML     string
}

// Library serves the markdown posts of one directory.
type Library struct {
	dir    string
	logger *zap.Logger
}

// NewLibrary creates a Library over dir.
func NewLibrary(logger *zap.Logger, dir string) *Library {
	return &Library{dir: dir, logger: logger}
}

// List returns every .md post, sorted case-insensitively by title. A missing
// directory yields an empty list.
func (l *Library) List() ([]Post, error) {
	posts := []Post{}

	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return posts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".md") || !entry.Type().IsRegular() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			l.logger.Warn("skipping blog post", zap.String("file", name), zap.Error(err))
			continue
		}

		title := heading(data)
		if title == "" {
			title = titleCase(strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), "_", " "))
		}
		posts = append(posts, Post{Filename: name, Title: title})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return strings.ToLower(posts[i].Title) < strings.ToLower(posts[j].Title)
	})
	return posts, nil
}

// Render converts the post stored under name to HTML. The title is the
// post's first heading, or name when it has none.
func (l *Library) Render(name string) (Rendered, error) {
	path, err := l.resolve(name)
	if err != nil {
		return Rendered{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rendered{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	title := heading(data)
	if title == "" {
		title = name
	}

	html := blackfriday.Run(data, blackfriday.WithExtensions(blackfriday.CommonExtensions))
	return Rendered{Filename: name, Title: title, HTML: string(html)}, nil
}

func (l *Library) resolve(name string) (string, error) {
	base, err := filepath.Abs(l.dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", l.dir, err)
	}

	path := filepath.Join(base, filepath.FromSlash(name))
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return path, nil
}

// heading returns the text of the first line starting with '#'.
func heading(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
