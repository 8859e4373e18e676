package profile

import (
	"reflect"
	"strings"
	"testing"

	"resumatch/internal/types"
)

func normalized(lines ...string) types.NormalizedText {
	return types.NormalizedText{Text: strings.Join(lines, " "), Lines: lines}
}

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name string
		text types.NormalizedText
		want types.Contact
	}{
		{
			name: "full header",
			text: normalized("Jane Doe", "Senior Backend Engineer", "jane.doe@example.com | +1 415-555-0100"),
			want: types.Contact{Name: "Jane Doe", Headline: "Senior Backend Engineer", Email: "jane.doe@example.com", Phone: "+1 415-555-0100"},
		},
		{
			name: "first line with email is not a name",
			text: normalized("jane@example.com", "Go developer"),
			want: types.Contact{Email: "jane@example.com", Headline: "Go developer"},
		},
		{
			name: "single word second line is not a headline",
			text: normalized("John Smith", "Engineer", "(555) 123-4567"),
			want: types.Contact{Name: "John Smith", Phone: "(555) 123-4567"},
		},
		{
			name: "long first line",
			text: normalized("Experienced engineer building large distributed systems for many years"),
			want: types.Contact{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractContact(tt.text); got != tt.want {
				t.Errorf("ExtractContact() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInferTitle(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		lines []string
		want  string
	}{
		{name: "specific role first", text: "Machine Learning Engineer with data scientist background", want: "Machine Learning Engineer"},
		{name: "data scientist", text: "I am a Data Scientist", want: "Data Scientist"},
		{name: "full stack hyphen", text: "Full-stack developer", want: "Full Stack"},
		{name: "qa needs word boundary", text: "quality aquarium", lines: []string{"quality aquarium"}, want: "quality aquarium"},
		{name: "qa", text: "QA lead", want: "QA"},
		{
			name:  "fallback skips contact lines",
			text:  "Jane Doe jane@example.com Growth Marketing Lead",
			lines: []string{"Jane", "jane@example.com 415 555 0100", "Growth Marketing Lead"},
			want:  "Growth Marketing Lead",
		},
		{
			name:  "fallback skips address lines",
			text:  "Home Address Main Street Head of Sales",
			lines: []string{"Home Address Main Street", "Head of Sales"},
			want:  "Head of Sales",
		},
		{name: "nothing found", text: "Photoshop", lines: []string{"Photoshop"}, want: ""},
		{name: "empty", text: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferTitle(tt.text, tt.lines); got != tt.want {
				t.Errorf("InferTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{name: "short text unchanged", text: "  Go   developer ", maxChars: 50, want: "Go developer"},
		{name: "cut at word boundary", text: "alpha beta gamma delta", maxChars: 13, want: "alpha beta..."},
		{name: "exact length", text: "alpha beta", maxChars: 10, want: "alpha beta"},
		{name: "single long word", text: "abcdefghij", maxChars: 4, want: "abcd..."},
		{name: "empty", text: "   ", maxChars: 10, want: ""},
		{name: "default length", text: strings.Repeat("word ", 200), maxChars: 0, want: strings.TrimSpace(strings.Repeat("word ", 80)) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.text, tt.maxChars); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckATS(t *testing.T) {
	long := strings.Repeat("Built Python services on AWS with Docker. ", 12)

	t.Run("complete resume with matching keywords", func(t *testing.T) {
		resume := normalized("Jane Doe", "jane@example.com 415-555-0100", long)
		report := CheckATS(resume, []string{"Python, AWS", "Docker"})
		if len(report.Issues) != 0 {
			t.Errorf("Issues = %q, want none", report.Issues)
		}
		if report.Score != 1 {
			t.Errorf("Score = %v, want 1", report.Score)
		}
		if report.KeywordOverlap != 1 || !report.HasJobKeywords {
			t.Errorf("KeywordOverlap = %v HasJobKeywords = %v", report.KeywordOverlap, report.HasJobKeywords)
		}
	})

	t.Run("bare resume without job", func(t *testing.T) {
		resume := normalized("Experienced engineer 2015 to 2024")
		report := CheckATS(resume, nil)
		want := []string{IssueMissingEmail, IssueMissingPhone, IssueNameNotFound, IssueTooShort, IssueLowKeywordMatch}
		if !reflect.DeepEqual(report.Issues, want) {
			t.Errorf("Issues = %q, want %q", report.Issues, want)
		}
		if report.Score != 0 {
			t.Errorf("Score = %v, want 0", report.Score)
		}
		if report.HasJobKeywords {
			t.Error("HasJobKeywords = true, want false")
		}
	})

	t.Run("partial overlap rounds to three places", func(t *testing.T) {
		resume := normalized("Jane Doe", strings.Repeat("python ", 40))
		report := CheckATS(resume, []string{"python", "rust", "haskell"})
		if report.KeywordOverlap != 0.333 {
			t.Errorf("KeywordOverlap = %v, want 0.333", report.KeywordOverlap)
		}
		// name 0.1 + half length credit 0.05 + keywords 0.5/3
		if report.Score != 0.317 {
			t.Errorf("Score = %v, want 0.317", report.Score)
		}
	})
}

func TestJobKeywords(t *testing.T) {
	tests := []struct {
		name string
		job  string
		want []string
	}{
		{name: "separators", job: "Python, AWS;Docker\nKubernetes", want: []string{"python", "aws", "docker", "kubernetes"}},
		{name: "sentence kept whole", job: "Looking for a Go engineer", want: []string{"looking for a go engineer"}},
		{name: "empty", job: " , ; ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JobKeywords(tt.job); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("JobKeywords() = %q, want %q", got, tt.want)
			}
		})
	}
}
