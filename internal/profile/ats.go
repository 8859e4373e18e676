package profile

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"resumatch/internal/types"
)

// ATS issue messages.
const (
	IssueMissingEmail    = "Missing email address."
	IssueMissingPhone    = "Missing phone number."
	IssueNameNotFound    = "Name not clearly identified at top of resume."
	IssueTooShort        = "Resume appears very short; consider adding more detail."
	IssueLowKeywordMatch = "Low keyword overlap with job description (may fail simple ATS filters)."
)

const (
	shortResumeChars    = 200
	fullResumeChars     = 400
	minKeywordOverlap   = 0.3
	contactWeight       = 0.3
	nameWeight          = 0.1
	lengthWeight        = 0.1
	keywordWeight       = 0.5
	minFallbackTokenLen = 3
)

var jdSplitRe = regexp.MustCompile(`[,;\n]`)

// CheckATS scores a resume against the checks a simple applicant tracking
// system applies: contact details, an identifiable name, enough content, and
// keyword overlap with the job description. jobLines may be empty.
func CheckATS(resume types.NormalizedText, jobLines []string) types.ATSReport {
	var issues []string

	hasEmail := emailRe.MatchString(resume.Text)
	hasPhone := phoneRe.MatchString(resume.Text)
	if !hasEmail {
		issues = append(issues, IssueMissingEmail)
	}
	if !hasPhone {
		issues = append(issues, IssueMissingPhone)
	}

	namePresent := Name(resume.Lines) != ""
	if !namePresent {
		issues = append(issues, IssueNameNotFound)
	}

	chars := utf8.RuneCountInString(resume.Text)
	if chars < shortResumeChars {
		issues = append(issues, IssueTooShort)
	}

	tokens := JobKeywords(strings.Join(jobLines, "\n"))
	overlap := KeywordOverlap(resume.Text, tokens)
	if overlap < minKeywordOverlap {
		issues = append(issues, IssueLowKeywordMatch)
	}

	var contactScore, nameScore, lengthScore float64
	if hasEmail && hasPhone {
		contactScore = 1
	}
	if namePresent {
		nameScore = 1
	}
	switch {
	case chars >= fullResumeChars:
		lengthScore = 1
	case chars >= shortResumeChars:
		lengthScore = 0.5
	}

	score := contactWeight*contactScore + nameWeight*nameScore + lengthWeight*lengthScore + keywordWeight*overlap
	if issues == nil {
		issues = []string{}
	}
	return types.ATSReport{
		Score:          round3(score),
		KeywordOverlap: round3(overlap),
		Issues:         issues,
		HasJobKeywords: len(tokens) > 0,
		CharacterCount: chars,
	}
}

// JobKeywords splits a job description into lowercase keyword phrases on
// commas, semicolons and newlines. A description without those separators
// falls back to its words longer than two characters.
func JobKeywords(job string) []string {
	lower := strings.ToLower(job)
	var tokens []string
	for _, part := range jdSplitRe.Split(lower, -1) {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) > 0 {
		return tokens
	}
	for _, w := range strings.Fields(lower) {
		if utf8.RuneCountInString(w) >= minFallbackTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// KeywordOverlap is the fraction of keywords found verbatim in the resume.
func KeywordOverlap(resume string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(resume)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
