// Package curriculum exposes the read-only problem catalog stored on disk as
// <track>/<group>/<NN-slug>/ directories.
package curriculum

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
)

const metaFile = "problem.yaml"

// discoveryPattern matches any file that marks a directory as a problem.
const discoveryPattern = "**/{problem.yaml,solution.py}"

type Entry struct {
	Track           string   `json:"track,omitempty"`
	Group           string   `json:"group,omitempty"`
	Slug            string   `json:"slug"`
	Order           int      `json:"order"`
	Title           string   `json:"title"`
	NormalizedTitle string   `json:"normalized_title"`
	Difficulty      string   `json:"difficulty,omitempty"`
	Pattern         string   `json:"pattern,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Dir             string   `json:"dir"`
}

type problemMeta struct {
	Title      string   `yaml:"title"`
	Difficulty string   `yaml:"difficulty"`
	Pattern    string   `yaml:"pattern"`
	Tags       []string `yaml:"tags"`
}

// Load discovers every problem directory under fsys and returns the entries
// sorted by track, group, order and slug.
func Load(fsys fs.FS) ([]Entry, error) {
	matches, err := doublestar.Glob(fsys, discoveryPattern)
	if err != nil {
		return nil, fmt.Errorf("glob curriculum: %w", err)
	}

	dirs := map[string]struct{}{}
	for _, m := range matches {
		dirs[path.Dir(m)] = struct{}{}
	}

	out := make([]Entry, 0, len(dirs))
	for dir := range dirs {
		if dir == "." {
			continue
		}
		e, err := loadEntry(fsys, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Slug < b.Slug
	})
	return out, nil
}

func loadEntry(fsys fs.FS, dir string) (Entry, error) {
	parts := strings.Split(dir, "/")
	slug := parts[len(parts)-1]
	e := Entry{Slug: slug, Dir: dir}
	if len(parts) >= 3 {
		e.Track = parts[len(parts)-3]
		e.Group = parts[len(parts)-2]
	} else if len(parts) == 2 {
		e.Group = parts[0]
	}
	var name string
	e.Order, name = splitOrder(slug)

	raw, err := fs.ReadFile(fsys, path.Join(dir, metaFile))
	switch {
	case err == nil:
		var meta problemMeta
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return Entry{}, fmt.Errorf("parse %s/%s: %w", dir, metaFile, err)
		}
		e.Title = strings.TrimSpace(meta.Title)
		e.Difficulty = strings.ToLower(strings.TrimSpace(meta.Difficulty))
		e.Pattern = strings.TrimSpace(meta.Pattern)
		e.Tags = meta.Tags
	case !errors.Is(err, fs.ErrNotExist):
		return Entry{}, fmt.Errorf("read %s/%s: %w", dir, metaFile, err)
	}
	if e.Title == "" {
		e.Title = TitleFromSlug(name)
	}
	e.NormalizedTitle = types.NormalizeTitle(e.Title)
	return e, nil
}

// splitOrder parses the "NN-" prefix of a problem directory name.
func splitOrder(slug string) (int, string) {
	head, rest, ok := strings.Cut(slug, "-")
	if !ok {
		return 0, slug
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, slug
	}
	return n, rest
}

// TitleFromSlug turns "dot-product-attention" into "Dot Product Attention".
func TitleFromSlug(s string) string {
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' }), " ")
	return cases.Title(language.English).String(s)
}
