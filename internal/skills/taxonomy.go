// Package skills holds the canonical skill taxonomy and extracts skill sets
// from normalized text.
package skills

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"resumatch/internal/errors"
	"resumatch/internal/tokenize"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomy []byte

// Skill is one canonical skill and the surface forms that map to it.
// Capitalized lists surface forms that are also ordinary words ("go",
// "swift"); they match only when written with an uppercase letter.
type Skill struct {
	Name        string   `yaml:"name" json:"name"`
	Synonyms    []string `yaml:"synonyms" json:"synonyms"`
	Capitalized []string `yaml:"capitalized,omitempty" json:"capitalized,omitempty"`
}

type taxonomyFile struct {
	Version string  `yaml:"version"`
	Skills  []Skill `yaml:"skills"`
}

type phrase struct {
	tokens      []string
	canonical   string
	capitalized bool
}

// Taxonomy is an immutable canonical-skill mapping. It is built once and
// shared read-only between requests.
type Taxonomy struct {
	version string
	skills  []Skill
	// phrases are keyed by their first token and sorted longest first
	phrases map[string][]phrase
	// dotted holds the surface-form tokens that contain a '.'
	dotted map[string]bool
}

// Version identifies the taxonomy artifact.
func (t *Taxonomy) Version() string { return t.version }

// Len returns the number of canonical skills.
func (t *Taxonomy) Len() int { return len(t.skills) }

// Skills returns a copy of the canonical skills in artifact order.
func (t *Taxonomy) Skills() []Skill {
	out := make([]Skill, len(t.skills))
	for i, s := range t.skills {
		out[i] = Skill{
			Name:        s.Name,
			Synonyms:    append([]string(nil), s.Synonyms...),
			Capitalized: append([]string(nil), s.Capitalized...),
		}
	}
	return out
}

// NewTaxonomy validates skills and builds the phrase index. Canonical names
// must be unique lowercase phrases, and a surface form may belong to only one
// skill. Every canonical name is also matched as a surface form.
func NewTaxonomy(version string, skills []Skill) (*Taxonomy, error) {
	if strings.TrimSpace(version) == "" {
		return nil, invalidTaxonomy("taxonomy version is required", nil)
	}
	if len(skills) == 0 {
		return nil, invalidTaxonomy("taxonomy has no skills", nil)
	}

	t := &Taxonomy{
		version: version,
		skills:  make([]Skill, 0, len(skills)),
		phrases: make(map[string][]phrase),
		dotted:  make(map[string]bool),
	}
	owner := make(map[string]string)

	for _, s := range skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, invalidTaxonomy("skill with empty name", nil)
		}
		if name != strings.ToLower(name) {
			return nil, invalidTaxonomy(fmt.Sprintf("canonical name %q must be lowercase", name), nil)
		}
		if _, dup := owner["name:"+name]; dup {
			return nil, invalidTaxonomy(fmt.Sprintf("duplicate canonical name %q", name), nil)
		}
		owner["name:"+name] = name

		forms := append([]string{name}, s.Synonyms...)
		capitalized := make(map[string]bool, len(s.Capitalized))
		for _, form := range s.Capitalized {
			key := tokenize.Phrase(form)
			if !isSurfaceForm(key, forms) {
				return nil, invalidTaxonomy(fmt.Sprintf("capitalized form %q is not a surface form of %q", form, name), nil)
			}
			capitalized[key] = true
		}

		var synonyms, capitalizedKeys []string
		for _, form := range forms {
			tokens := tokenize.Tokens(form)
			if len(tokens) == 0 {
				return nil, invalidTaxonomy(fmt.Sprintf("skill %q has a synonym with no word characters: %q", name, form), nil)
			}
			key := strings.Join(tokens, " ")
			if prev, seen := owner[key]; seen {
				if prev != name {
					return nil, invalidTaxonomy(fmt.Sprintf("synonym %q maps to both %q and %q", form, prev, name), nil)
				}
				continue
			}
			owner[key] = name
			if key != name {
				synonyms = append(synonyms, key)
			}
			if capitalized[key] {
				capitalizedKeys = append(capitalizedKeys, key)
			}
			for _, tok := range tokens {
				if strings.Contains(tok, ".") {
					t.dotted[tok] = true
				}
			}
			t.phrases[tokens[0]] = append(t.phrases[tokens[0]], phrase{
				tokens:      tokens,
				canonical:   name,
				capitalized: capitalized[key],
			})
		}
		t.skills = append(t.skills, Skill{Name: name, Synonyms: synonyms, Capitalized: capitalizedKeys})
	}

	for first, list := range t.phrases {
		sort.SliceStable(list, func(i, j int) bool {
			if len(list[i].tokens) != len(list[j].tokens) {
				return len(list[i].tokens) > len(list[j].tokens)
			}
			return strings.Join(list[i].tokens, " ") < strings.Join(list[j].tokens, " ")
		})
		t.phrases[first] = list
	}
	return t, nil
}

func isSurfaceForm(key string, forms []string) bool {
	for _, form := range forms {
		if tokenize.Phrase(form) == key {
			return true
		}
	}
	return false
}

// ParseTaxonomy decodes a YAML taxonomy artifact.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, invalidTaxonomy("failed to parse taxonomy", err)
	}
	return NewTaxonomy(file.Version, file.Skills)
}

// LoadTaxonomy reads the taxonomy at path, or the built-in taxonomy when
// path is empty.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return ParseTaxonomy(defaultTaxonomy)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalidTaxonomy("failed to read taxonomy file", err).WithContext("path", path)
	}
	t, err := ParseTaxonomy(data)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() (*Taxonomy, error) {
	return ParseTaxonomy(defaultTaxonomy)
}

func invalidTaxonomy(message string, cause error) *errors.AppError {
	return errors.NewConfigError(errors.ErrCodeTaxonomyInvalid, message, cause)
}
