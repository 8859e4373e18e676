// Package profile reads lightweight fields from normalized resume text: the
// candidate's contact block, an inferred role title, a short preview, and a
// simple ATS keyword report.
package profile

import (
	"regexp"
	"strings"

	"resumatch/internal/types"
)

var (
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9.-]+`)
	phoneRe       = regexp.MustCompile(`(\+\d{1,3}[\s-])?(\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4})`)
	notNameRe     = regexp.MustCompile(`\d|@|www\.|http`)
	notHeadlineRe = regexp.MustCompile(`\d|@`)
)

const maxHeaderWords = 6

// ExtractContact reads name, email, phone and headline. The name is the first
// line when it is short and free of digits or links; the headline is the
// second line when it has two to six words and no digits or email.
func ExtractContact(text types.NormalizedText) types.Contact {
	var c types.Contact
	if m := emailRe.FindString(text.Text); m != "" {
		c.Email = m
	}
	if m := phoneRe.FindString(text.Text); m != "" {
		c.Phone = m
	}
	c.Name = Name(text.Lines)
	if len(text.Lines) > 1 {
		cand := text.Lines[1]
		n := len(strings.Fields(cand))
		if n > 1 && n <= maxHeaderWords && !notHeadlineRe.MatchString(cand) {
			c.Headline = cand
		}
	}
	return c
}

// Name returns the first line if it looks like a person's name, else "".
func Name(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	first := lines[0]
	if len(strings.Fields(first)) <= maxHeaderWords && !notNameRe.MatchString(first) {
		return first
	}
	return ""
}
