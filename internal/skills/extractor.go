package skills

import (
	"strings"
	"unicode"

	"resumatch/internal/tokenize"
)

// Extract returns the canonical skills mentioned in text, de-duplicated, in
// order of first occurrence. Matching is on whole tokens: at each position
// the longest surface form wins and consumes its tokens, so "java" never
// matches inside "javascript".
func Extract(text string, tax *Taxonomy) []string {
	skills := []string{}
	if tax == nil {
		return skills
	}
	words := tax.words(text)
	tokens := make([]string, len(words))
	for i, w := range words {
		tokens[i] = strings.ToLower(w)
	}
	seen := make(map[string]bool)

	for i := 0; i < len(tokens); {
		p, ok := tax.longestMatch(words, tokens, i)
		if !ok {
			i++
			continue
		}
		if !seen[p.canonical] {
			seen[p.canonical] = true
			skills = append(skills, p.canonical)
		}
		i += len(p.tokens)
	}
	return skills
}

// Extract is shorthand for Extract(text, t).
func (t *Taxonomy) Extract(text string) []string {
	return Extract(text, t)
}

// words tokenizes text keeping case. A dotted token that no surface form
// uses is split on its dots, rejoining the longest runs of parts that do
// form a dotted surface token ("Node.js.Java" becomes "Node.js", "Java").
func (t *Taxonomy) words(text string) []string {
	raw := tokenize.Words(text)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if !strings.Contains(w, ".") || t.dotted[strings.ToLower(w)] {
			out = append(out, w)
			continue
		}
		parts := tokenize.SplitDotted(w)
		for i := 0; i < len(parts); {
			j := len(parts)
			for ; j > i+1; j-- {
				if t.dotted[strings.ToLower(strings.Join(parts[i:j], "."))] {
					break
				}
			}
			out = append(out, strings.Join(parts[i:j], "."))
			i = j
		}
	}
	return out
}

func (t *Taxonomy) longestMatch(words, tokens []string, at int) (phrase, bool) {
	for _, p := range t.phrases[tokens[at]] {
		end := at + len(p.tokens)
		if end > len(tokens) {
			continue
		}
		matched := true
		for k := 1; k < len(p.tokens); k++ {
			if tokens[at+k] != p.tokens[k] {
				matched = false
				break
			}
		}
		if matched && p.capitalized && !hasUpper(words[at:end]) {
			matched = false
		}
		if matched {
			return p, true
		}
	}
	return phrase{}, false
}

func hasUpper(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if unicode.IsUpper(r) {
				return true
			}
		}
	}
	return false
}

// Intersect returns the members of want that are also in have, in want's order.
func Intersect(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	out := []string{}
	for _, s := range want {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// Difference returns the members of want that are not in have, in want's order.
func Difference(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	out := []string{}
	for _, s := range want {
		if !set[s] {
			out = append(out, s)
		}
	}
	return out
}
