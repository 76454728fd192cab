// Package skill loads skill artifacts: a frontmatter metadata block plus a
// markdown body.
package skill

import (
	"encoding"
	"errors"
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	_ encoding.TextMarshaler   = (*Artifact)(nil)
	_ encoding.TextUnmarshaler = (*Artifact)(nil)
)

// Frontmatter holds the required metadata keys parsed from the artifact's
// frontmatter block.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
}

// Artifact is a loaded skill file. It is immutable once loaded; callers that
// need fresh state reload from disk rather than mutating.
type Artifact struct {
	Path        string
	Frontmatter Frontmatter
	// Fields holds every frontmatter key/value pair. Nil when the artifact
	// has no frontmatter block at all.
	Fields     map[string]string
	Body       string
	RawContent string
}

// Load reads and parses the artifact at path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skill artifact: %w", err)
	}
	var art Artifact
	if err := art.UnmarshalText(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	art.Path = path
	return &art, nil
}

// parseFrontmatter splits the ----delimited frontmatter block from the body.
// When no marker pair exists the whole content is treated as body.
func parseFrontmatter(content string) (Frontmatter, map[string]string, string) {
	var fm Frontmatter

	if !strings.HasPrefix(content, "---") {
		return fm, nil, content
	}

	rest := content[3:]
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}

	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		// Unclosed marker: not a frontmatter block.
		return fm, nil, content
	}

	block := rest[:idx]
	body := rest[idx+4:] // skip \n---

	fields := map[string]string{}
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		// A marker pair around an unparsable block still counts as "no
		// frontmatter"; the structural validator reports the missing keys.
		return fm, nil, content
	}
	_ = yaml.Unmarshal([]byte(block), &fm)

	return fm, fields, body
}

func (a *Artifact) UnmarshalText(text []byte) error {
	raw := string(text)
	if strings.TrimSpace(raw) == "" {
		return errors.New("skill artifact is empty")
	}

	fm, fields, body := parseFrontmatter(raw)
	a.Frontmatter = fm
	a.Fields = fields
	a.Body = body
	a.RawContent = raw
	return nil
}

func (a *Artifact) MarshalText() ([]byte, error) {
	fields := map[string]string{}
	if a.Fields != nil {
		maps.Copy(fields, a.Fields)
	}
	if a.Frontmatter.Name != "" {
		fields["name"] = a.Frontmatter.Name
	}
	if a.Frontmatter.Description != "" {
		fields["description"] = a.Frontmatter.Description
	}
	if a.Frontmatter.Language != "" {
		fields["language"] = a.Frontmatter.Language
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteString("---\n")
	for _, k := range keys {
		line, err := yaml.Marshal(map[string]string{k: fields[k]})
		if err != nil {
			return nil, fmt.Errorf("marshaling frontmatter: %w", err)
		}
		buf.Write(line)
	}
	buf.WriteString("---")
	buf.WriteString(a.Body)
	return []byte(buf.String()), nil
}
