package types

// SourceKind tells whether a Document arrived as an uploaded file or pasted text.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceText SourceKind = "text"
)

// DocumentKind is the declared format of a file payload.
type DocumentKind string

const (
	KindPDF  DocumentKind = "pdf"
	KindText DocumentKind = "text"
	KindHTML DocumentKind = "html"
	KindDOCX DocumentKind = "docx"
)

// SupportedKinds lists the document kinds the normalizer can read.
var SupportedKinds = []DocumentKind{KindPDF, KindText, KindHTML, KindDOCX}

// Document is one raw input to the pipeline. It lives for a single request.
type Document struct {
	Source SourceKind
	Kind   DocumentKind
	Name   string
	Data   []byte
	Text   string
}

// FileInput builds a Document from uploaded bytes of a declared kind.
func FileInput(name string, kind DocumentKind, data []byte) Document {
	return Document{Source: SourceFile, Kind: kind, Name: name, Data: data}
}

// TextInput builds a Document from pasted text.
func TextInput(text string) Document {
	return Document{Source: SourceText, Kind: KindText, Text: text}
}

// Size returns the payload length in bytes.
func (d Document) Size() int {
	if d.Source == SourceText {
		return len(d.Text)
	}
	return len(d.Data)
}

// NormalizedText is the cleaned text of a Document. Text is never empty.
type NormalizedText struct {
	Text  string   `json:"text"`
	Lines []string `json:"lines,omitempty"`
	Pages int      `json:"pages,omitempty"`
}

// Prediction is the fit label.
type Prediction string

const (
	PredictionFit    Prediction = "Fit"
	PredictionNotFit Prediction = "Not Fit"
)

// FeatureVector is the classifier input derived from a resume/job pair.
type FeatureVector struct {
	SimilarityScore  float64 `json:"similarity_score"`
	ResumeSkillCount int     `json:"resume_skill_count"`
	JobSkillCount    int     `json:"job_skill_count"`
	OverlapCount     int     `json:"overlap_count"`
	OverlapRatio     float64 `json:"overlap_ratio"`
}

// MatchResult is the outcome of analyzing one resume against one job description.
type MatchResult struct {
	Prediction      Prediction    `json:"prediction"`
	ConfidenceScore float64       `json:"confidence_score"`
	SimilarityScore float64       `json:"similarity_score"`
	ResumeSkills    []string      `json:"resume_skills"`
	JobSkills       []string      `json:"job_skills"`
	MatchedSkills   []string      `json:"matched_skills"`
	MissingSkills   []string      `json:"missing_skills"`
	Features        FeatureVector `json:"features"`
	ProfileTitle    string        `json:"profile_title,omitempty"`
	ResumeSummary   string        `json:"resume_summary,omitempty"`
	ModelVersion    string        `json:"model_version"`
	TaxonomyVersion string        `json:"taxonomy_version"`
}

// Contact holds the lightweight fields read from the top of a resume.
type Contact struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Headline string `json:"headline,omitempty"`
}

// ATSReport scores how well a resume would survive a simple keyword filter.
type ATSReport struct {
	Score          float64  `json:"ats_score"`
	KeywordOverlap float64  `json:"keyword_overlap"`
	Issues         []string `json:"issues"`
	HasJobKeywords bool     `json:"has_job_keywords"`
	CharacterCount int      `json:"character_count"`
}

// ParseResult is the outcome of parsing a resume without classification.
type ParseResult struct {
	Contact         Contact   `json:"contact"`
	Skills          []string  `json:"skills"`
	JobSkills       []string  `json:"job_skills,omitempty"`
	ProfileTitle    string    `json:"profile_title,omitempty"`
	Summary         string    `json:"summary"`
	ATS             ATSReport `json:"ats"`
	Pages           int       `json:"pages,omitempty"`
	TaxonomyVersion string    `json:"taxonomy_version"`
}
