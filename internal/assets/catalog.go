package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AudioPrefix is the path prefix the game uses for bundled audio.
const AudioPrefix = "/audio/"

var (
	// ErrUnknownAsset is returned for a source that is neither a path, a URL
	// nor a catalog id.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrInvalidPath is returned for asset paths that escape the asset root.
	ErrInvalidPath = errors.New("invalid asset path")
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Kind classifies a catalog entry.
type Kind string

const (
	KindPhrase Kind = "phrase"
	KindEffect Kind = "effect"
	KindMusic  Kind = "music"
)

// Entry is one catalog asset.
type Entry struct {
	ID    string `yaml:"id"`
	Kind  Kind   `yaml:"kind"`
	Group string `yaml:"group,omitempty"`
	File  string `yaml:"file"`
	Text  string `yaml:"text,omitempty"` // spoken text, phrases only
}

// Catalog maps asset ids to files.
type Catalog struct {
	Language string  `yaml:"language"`
	Entries  []Entry `yaml:"entries"`

	byID map[string]int
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog file.
func LoadCatalog(name string) (*Catalog, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.byID = make(map[string]int, len(c.Entries))
	for i, e := range c.Entries {
		switch {
		case e.ID == "":
			return fmt.Errorf("catalog entry %d has no id", i)
		case e.File == "":
			return fmt.Errorf("catalog entry %q has no file", e.ID)
		case !validRelative(e.File):
			return fmt.Errorf("catalog entry %q: %w: %s", e.ID, ErrInvalidPath, e.File)
		}
		switch e.Kind {
		case KindPhrase:
			if strings.TrimSpace(e.Text) == "" {
				return fmt.Errorf("catalog phrase %q has no text", e.ID)
			}
		case KindEffect, KindMusic:
		default:
			return fmt.Errorf("catalog entry %q has unknown kind %q", e.ID, e.Kind)
		}
		if _, dup := c.byID[e.ID]; dup {
			return fmt.Errorf("duplicate catalog id %q", e.ID)
		}
		c.byID[e.ID] = i
	}
	return nil
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.Entries[i], true
}

// Kind returns the entries of kind k in catalog order.
func (c *Catalog) Kind(k Kind) []Entry {
	var out []Entry
	for _, e := range c.Entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns the distinct phrase groups, sorted.
func (c *Catalog) Groups() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range c.Entries {
		if e.Group != "" && !seen[e.Group] {
			seen[e.Group] = true
			out = append(out, e.Group)
		}
	}
	sort.Strings(out)
	return out
}

// Resolve turns a source into either an absolute URL or a slash separated
// path relative to the asset root. Sources may be catalog ids ("benar"),
// game paths ("/audio/benar.mp3"), relative file names or URLs.
func (c *Catalog) Resolve(source string) (string, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return "", fmt.Errorf("%w: empty source", ErrUnknownAsset)
	case isURL(source):
		return source, nil
	case strings.HasPrefix(source, AudioPrefix):
		source = strings.TrimPrefix(source, AudioPrefix)
	case !strings.ContainsAny(source, "./"):
		e, ok := c.Lookup(source)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownAsset, source)
		}
		return e.File, nil
	}

	if !validRelative(source) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, source)
	}
	return path.Clean(source), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// validRelative reports whether p stays inside the asset root.
func validRelative(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	clean := path.Clean(p)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
