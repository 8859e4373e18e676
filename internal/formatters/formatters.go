package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "MatchResult", &MatchTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchResult", &MatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "ParseResult", &ParseTextFormatter{})
	registry.RegisterFormatter("markdown", "ParseResult", &ParseMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.MatchResult:
		if v != nil {
			return *v
		}
	case *types.ParseResult:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.MatchResult:
		return "MatchResult"
	case types.ParseResult:
		return "ParseResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// MatchTextFormatter renders a MatchResult for terminals
type MatchTextFormatter struct{}

func (f *MatchTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.MatchResult)
	if !ok {
		return "", fmt.Errorf("expected MatchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCH RESULT ===\n")
	fmt.Fprintf(&output, "Prediction: %s\n", result.Prediction)
	fmt.Fprintf(&output, "Confidence: %.3f\n", result.ConfidenceScore)
	fmt.Fprintf(&output, "Similarity: %.3f\n", result.SimilarityScore)
	if result.ProfileTitle != "" {
		fmt.Fprintf(&output, "Profile:    %s\n", result.ProfileTitle)
	}
	output.WriteString("\n")

	output.WriteString("=== SKILLS ===\n")
	fmt.Fprintf(&output, "Resume:  %s\n", joinOrNone(result.ResumeSkills))
	fmt.Fprintf(&output, "Job:     %s\n", joinOrNone(result.JobSkills))
	fmt.Fprintf(&output, "Matched: %s\n", joinOrNone(result.MatchedSkills))
	fmt.Fprintf(&output, "Missing: %s\n", joinOrNone(result.MissingSkills))
	fmt.Fprintf(&output, "Overlap: %d of %d (%.2f)\n",
		result.Features.OverlapCount, result.Features.JobSkillCount, result.Features.OverlapRatio)

	if result.ResumeSummary != "" {
		output.WriteString("\n=== SUMMARY ===\n")
		output.WriteString(result.ResumeSummary)
		output.WriteString("\n")
	}

	fmt.Fprintf(&output, "\nmodel %s, taxonomy %s\n", result.ModelVersion, result.TaxonomyVersion)
	return output.String(), nil
}

func (f *MatchTextFormatter) SupportedType() string {
	return "MatchResult"
}

// MatchMarkdownFormatter renders a MatchResult as a markdown report
type MatchMarkdownFormatter struct{}

func (f *MatchMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.MatchResult)
	if !ok {
		return "", fmt.Errorf("expected MatchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Match Result\n\n")
	fmt.Fprintf(&output, "**Prediction:** %s  \n", result.Prediction)
	fmt.Fprintf(&output, "**Confidence:** %.3f  \n", result.ConfidenceScore)
	fmt.Fprintf(&output, "**Similarity:** %.3f\n\n", result.SimilarityScore)
	if result.ProfileTitle != "" {
		fmt.Fprintf(&output, "**Profile:** %s\n\n", result.ProfileTitle)
	}

	output.WriteString("## Skills\n\n")
	output.WriteString("| | Skills |\n|---|---|\n")
	fmt.Fprintf(&output, "| Resume | %s |\n", joinOrNone(result.ResumeSkills))
	fmt.Fprintf(&output, "| Job | %s |\n", joinOrNone(result.JobSkills))
	fmt.Fprintf(&output, "| Matched | %s |\n", joinOrNone(result.MatchedSkills))
	fmt.Fprintf(&output, "| Missing | %s |\n\n", joinOrNone(result.MissingSkills))

	if result.ResumeSummary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(result.ResumeSummary)
		output.WriteString("\n\n")
	}

	fmt.Fprintf(&output, "_model %s, taxonomy %s_\n", result.ModelVersion, result.TaxonomyVersion)
	return output.String(), nil
}

func (f *MatchMarkdownFormatter) SupportedType() string {
	return "MatchResult"
}

// ParseTextFormatter renders a ParseResult for terminals
type ParseTextFormatter struct{}

func (f *ParseTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ParseResult)
	if !ok {
		return "", fmt.Errorf("expected ParseResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== CONTACT ===\n")
	fmt.Fprintf(&output, "Name:     %s\n", orNone(result.Contact.Name))
	fmt.Fprintf(&output, "Headline: %s\n", orNone(result.Contact.Headline))
	fmt.Fprintf(&output, "Email:    %s\n", orNone(result.Contact.Email))
	fmt.Fprintf(&output, "Phone:    %s\n", orNone(result.Contact.Phone))
	if result.ProfileTitle != "" {
		fmt.Fprintf(&output, "Profile:  %s\n", result.ProfileTitle)
	}
	output.WriteString("\n")

	output.WriteString("=== SKILLS ===\n")
	output.WriteString(joinOrNone(result.Skills))
	output.WriteString("\n")
	if len(result.JobSkills) > 0 {
		fmt.Fprintf(&output, "Job: %s\n", strings.Join(result.JobSkills, ", "))
	}
	output.WriteString("\n")

	output.WriteString("=== ATS CHECK ===\n")
	fmt.Fprintf(&output, "Score: %.3f\n", result.ATS.Score)
	if result.ATS.HasJobKeywords {
		fmt.Fprintf(&output, "Keyword overlap: %.3f\n", result.ATS.KeywordOverlap)
	}
	for _, issue := range result.ATS.Issues {
		fmt.Fprintf(&output, "- %s\n", issue)
	}

	output.WriteString("\n=== SUMMARY ===\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (f *ParseTextFormatter) SupportedType() string {
	return "ParseResult"
}

// ParseMarkdownFormatter renders a ParseResult as markdown
type ParseMarkdownFormatter struct{}

func (f *ParseMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ParseResult)
	if !ok {
		return "", fmt.Errorf("expected ParseResult, got %T", data)
	}

	var output strings.Builder

	title := result.Contact.Name
	if title == "" {
		title = "Parsed Resume"
	}
	fmt.Fprintf(&output, "# %s\n\n", title)
	if result.Contact.Headline != "" {
		fmt.Fprintf(&output, "_%s_\n\n", result.Contact.Headline)
	}
	if result.Contact.Email != "" {
		fmt.Fprintf(&output, "- **Email:** %s\n", result.Contact.Email)
	}
	if result.Contact.Phone != "" {
		fmt.Fprintf(&output, "- **Phone:** %s\n", result.Contact.Phone)
	}
	if result.ProfileTitle != "" {
		fmt.Fprintf(&output, "- **Profile:** %s\n", result.ProfileTitle)
	}
	output.WriteString("\n")

	output.WriteString("## Skills\n\n")
	for _, skill := range result.Skills {
		fmt.Fprintf(&output, "- %s\n", skill)
	}
	if len(result.Skills) == 0 {
		output.WriteString("_none found_\n")
	}
	output.WriteString("\n")

	output.WriteString("## ATS Check\n\n")
	fmt.Fprintf(&output, "**Score:** %.3f\n\n", result.ATS.Score)
	for _, issue := range result.ATS.Issues {
		fmt.Fprintf(&output, "- %s\n", issue)
	}
	if len(result.ATS.Issues) > 0 {
		output.WriteString("\n")
	}

	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")

	return output.String(), nil
}

func (f *ParseMarkdownFormatter) SupportedType() string {
	return "ParseResult"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// GlobalRegistry is the default formatter registry instance
var GlobalRegistry = NewFormatterRegistry()
