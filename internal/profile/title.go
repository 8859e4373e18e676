package profile

import (
	"regexp"
	"strings"
)

type role struct {
	pattern *regexp.Regexp
	label   string
}

// roles are checked in order; more specific titles come first.
var roles = []role{
	{regexp.MustCompile(`\bmachine learning engineer\b`), "Machine Learning Engineer"},
	{regexp.MustCompile(`\bdata scientist\b`), "Data Scientist"},
	{regexp.MustCompile(`\bmachine learning\b`), "Machine Learning"},
	{regexp.MustCompile(`\bml engineer\b`), "ML Engineer"},
	{regexp.MustCompile(`\bdata engineer\b`), "Data Engineer"},
	{regexp.MustCompile(`\bsoftware engineer\b`), "Software Engineer"},
	{regexp.MustCompile(`\bsenior software engineer\b`), "Senior Software Engineer"},
	{regexp.MustCompile(`\bbackend engineer\b`), "Backend Engineer"},
	{regexp.MustCompile(`\bfrontend engineer\b`), "Frontend Engineer"},
	{regexp.MustCompile(`\bfull[- ]stack\b`), "Full Stack"},
	{regexp.MustCompile(`\bdevops\b`), "DevOps"},
	{regexp.MustCompile(`\bqa\b`), "QA"},
	{regexp.MustCompile(`\bdesigner\b`), "Designer"},
	{regexp.MustCompile(`\bproduct manager\b`), "Product Manager"},
	{regexp.MustCompile(`\barchitect\b`), "Architect"},
	{regexp.MustCompile(`\bcloud\b`), "Cloud"},
	{regexp.MustCompile(`\bsecurity\b`), "Security"},
	{regexp.MustCompile(`\bresearcher\b`), "Researcher"},
}

var (
	contactLineRe = regexp.MustCompile(`@|\d{3}[-.\s]\d{3}`)
	addressLineRe = regexp.MustCompile(`address|www\.|http`)
)

const titleScanLines = 10

// InferTitle guesses the role a text describes. Known role names win; failing
// that, the first of the top lines with two to six words that is not a
// contact or address line is used.
func InferTitle(text string, lines []string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, r := range roles {
		if r.pattern.MatchString(lower) {
			return r.label
		}
	}

	if len(lines) > titleScanLines {
		lines = lines[:titleScanLines]
	}
	for _, line := range lines {
		n := len(strings.Fields(line))
		if n <= 1 || n > maxHeaderWords {
			continue
		}
		if contactLineRe.MatchString(line) || addressLineRe.MatchString(strings.ToLower(line)) {
			continue
		}
		return strings.TrimSpace(line)
	}
	return ""
}
