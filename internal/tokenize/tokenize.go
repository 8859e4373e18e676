// Package tokenize splits text into the lowercase word tokens shared by skill
// extraction and similarity scoring.
package tokenize

import (
	"strings"
	"unicode"
)

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}

// Words returns the tokens of text in order, keeping their original case.
// Letters, digits, '+', '#' and '.' are word characters so "c++", "c#" and
// "node.js" survive; trailing dots are dropped and a leading dot is kept only
// on a single-dot prefix such as ".net".
func Words(text string) []string {
	var words []string
	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if strings.HasPrefix(w, "..") {
			w = strings.TrimLeft(w, ".")
		}
		if w != "" && w != "." {
			words = append(words, w)
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// Tokens returns the lowercase tokens of text in order.
func Tokens(text string) []string {
	words := Words(text)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// SplitDotted splits token on its dots, dropping empty parts. Text that lost
// the space after a full stop ("developer.Python") comes apart again.
func SplitDotted(token string) []string {
	if !strings.Contains(token, ".") {
		return []string{token}
	}
	return strings.FieldsFunc(token, func(r rune) bool { return r == '.' })
}

// Phrase returns the canonical space-joined token form of s.
func Phrase(s string) string {
	return strings.Join(Tokens(s), " ")
}
