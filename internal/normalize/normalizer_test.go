package normalize

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapses whitespace", input: "  Senior\t\tGo   developer \n", want: "Senior Go developer"},
		{name: "strips control characters", input: "a\x00b\x07c", want: "abc"},
		{name: "strips zero width characters", input: "Py\u200bthon", want: "Python"},
		{name: "applies NFKC", input: "\uff30\uff59\uff54\uff48\uff4f\uff4e of\ufb01ce", want: "Python office"},
		{name: "non-breaking space", input: "machine\u00a0learning", want: "machine learning"},
		{name: "empty", input: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	nz := New()
	got, err := nz.Normalize(context.Background(), types.TextInput("Jane Doe\n\n  Backend   Engineer\nPython, AWS\t Docker  "))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if want := "Jane Doe Backend Engineer Python, AWS Docker"; got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	wantLines := []string{"Jane Doe", "Backend Engineer", "Python, AWS Docker"}
	if strings.Join(got.Lines, "|") != strings.Join(wantLines, "|") {
		t.Errorf("Lines = %q, want %q", got.Lines, wantLines)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      types.Document
		opts     []Option
		wantType errors.ErrorType
		wantCode string
	}{
		{
			name:     "whitespace only text",
			doc:      types.TextInput(" \n\t "),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeNoText,
		},
		{
			name:     "empty file",
			doc:      types.FileInput("cv.pdf", types.KindPDF, nil),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeEmptyDocument,
		},
		{
			name:     "unsupported kind",
			doc:      types.FileInput("cv.odt", types.DocumentKind("odt"), []byte("data")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeUnsupportedDocument,
		},
		{
			name:     "corrupt pdf",
			doc:      types.FileInput("cv.pdf", types.KindPDF, []byte("this is not a pdf at all")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentCorrupt,
		},
		{
			name:     "corrupt docx",
			doc:      types.FileInput("cv.docx", types.KindDOCX, []byte("PK not really")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentCorrupt,
		},
		{
			name:     "too large",
			doc:      types.TextInput(strings.Repeat("a", 20)),
			opts:     []Option{WithMaxBytes(10)},
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentTooLarge,
		},
		{
			name:     "random bytes declared as text",
			doc:      types.FileInput("resume.txt", types.KindText, randomBytes(512)),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentCorrupt,
		},
		{
			name:     "pdf payload declared as text",
			doc:      types.FileInput("resume.txt", types.KindText, buildTestPDF("BT (Jane) Tj ET")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentCorrupt,
		},
		{
			name:     "text with NUL bytes",
			doc:      types.FileInput("resume.txt", types.KindText, []byte("Jane Doe\x00\x00Go developer")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeDocumentCorrupt,
		},
		{
			name:     "pdf without text",
			doc:      types.FileInput("blank.pdf", types.KindPDF, buildTestPDF("q 1 0 0 1 0 0 cm Q")),
			wantType: errors.ErrorTypeExtraction,
			wantCode: errors.ErrCodeNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...).Normalize(context.Background(), tt.doc)
			if err == nil {
				t.Fatal("Normalize() expected error")
			}
			appErr, ok := errors.As(err)
			if !ok {
				t.Fatalf("error %v is not an AppError", err)
			}
			if appErr.Type != tt.wantType || appErr.Code != tt.wantCode {
				t.Errorf("got %s/%s, want %s/%s", appErr.Type, appErr.Code, tt.wantType, tt.wantCode)
			}
		})
	}
}

func TestNormalizeHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Normalize(ctx, types.TextInput("python")); err != context.Canceled {
		t.Errorf("Normalize() error = %v, want context.Canceled", err)
	}
}

func TestNormalizeWindows1252Fallback(t *testing.T) {
	doc := types.FileInput("cv.txt", types.KindText, []byte("caf\xe9 r\xe9sum\xe9"))
	got, err := New().Normalize(context.Background(), doc)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Text != "café résumé" {
		t.Errorf("Text = %q, want %q", got.Text, "café résumé")
	}
}

func TestNormalizeUTF16Text(t *testing.T) {
	data := []byte("\xff\xfeG\x00o\x00 \x00d\x00e\x00v\x00")
	got, err := New().Normalize(context.Background(), types.FileInput("cv.txt", types.KindText, data))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Text != "Go dev" {
		t.Errorf("Text = %q, want %q", got.Text, "Go dev")
	}
}

func TestNormalizeHTML(t *testing.T) {
	page := `<html><head><title>ignored</title><style>.a{color:red}</style></head>
<body><h1>Jane Doe</h1><p>Python &amp; Go</p><script>var skills = "cobol";</script></body></html>`
	got, err := New().Normalize(context.Background(), types.FileInput("cv.html", types.KindHTML, []byte(page)))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Text != "Jane Doe Python & Go" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Lines) != 2 || got.Lines[0] != "Jane Doe" {
		t.Errorf("Lines = %q", got.Lines)
	}
}

func TestNormalizeDOCX(t *testing.T) {
	data := buildTestDOCX(t, []string{"Jane Doe", "Go<w:tab/></w:t><w:t>Kubernetes"})
	got, err := New().Normalize(context.Background(), types.FileInput("cv.docx", types.KindDOCX, data))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.Text != "Jane Doe Go Kubernetes" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Lines) != 2 || got.Lines[1] != "Go Kubernetes" {
		t.Errorf("Lines = %q", got.Lines)
	}
}

func TestNormalizeDOCXInflationLimit(t *testing.T) {
	// a few KB of deflated XML that inflates to megabytes of text
	data := buildTestDOCX(t, []string{strings.Repeat("Go Kubernetes ", 200000)})
	if len(data) > 64<<10 {
		t.Fatalf("test archive is %d bytes, want it under the payload limit", len(data))
	}

	_, err := New(WithMaxBytes(64<<10)).Normalize(context.Background(), types.FileInput("cv.docx", types.KindDOCX, data))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeDocumentTooLarge {
		t.Fatalf("Normalize() error = %v, want %s", err, errors.ErrCodeDocumentTooLarge)
	}
	if appErr.Context["name"] != "cv.docx" {
		t.Errorf("name context = %v", appErr.Context["name"])
	}

	small := buildTestDOCX(t, []string{"Jane Doe", "Go and Kubernetes"})
	if _, err := New(WithMaxBytes(64<<10)).Normalize(context.Background(), types.FileInput("cv.docx", types.KindDOCX, small)); err != nil {
		t.Errorf("Normalize() small docx error = %v", err)
	}
}

func TestCountingReader(t *testing.T) {
	r := &countingReader{r: strings.NewReader(strings.Repeat("x", 100)), limit: 10}
	_, err := io.ReadAll(r)
	if err != errInflateLimit || !r.exceeded() {
		t.Errorf("ReadAll() error = %v exceeded = %v, want limit error", err, r.exceeded())
	}

	unlimited := &countingReader{r: strings.NewReader(strings.Repeat("x", 100))}
	data, err := io.ReadAll(unlimited)
	if err != nil || len(data) != 100 {
		t.Errorf("ReadAll() = %d bytes, %v", len(data), err)
	}
}

func TestNormalizePDFJoinsPagesInOrder(t *testing.T) {
	data := buildTestPDF(
		"BT\n/F1 12 Tf\n72 720 Td\n(Jane Doe) Tj\n0 -14 Td\n(Python Engineer) Tj\nET",
		"BT\n/F1 12 Tf\n72 720 Td\n[(Dock) -20 (er) -400 (AWS)] TJ\nET",
	)
	got, err := New().Normalize(context.Background(), types.FileInput("cv.pdf", types.KindPDF, data))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if want := "Jane Doe Python Engineer Docker AWS"; got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if got.Pages != 2 {
		t.Errorf("Pages = %d, want 2", got.Pages)
	}
	if len(got.Lines) == 0 || got.Lines[0] != "Jane Doe" {
		t.Errorf("Lines = %q", got.Lines)
	}
}

func TestContentStreamText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "Tj", content: "BT (Hello World) Tj ET", want: "Hello World "},
		{name: "escapes", content: `BT (C\+\+ \(senior\)) Tj ET`, want: "C++ (senior) "},
		{name: "octal escape", content: `BT (a\040b) Tj ET`, want: "a b "},
		{name: "T star", content: "BT (one) Tj T* (two) Tj ET", want: "one\ntwo "},
		{name: "quote operator", content: "BT (one) Tj (two) ' ET", want: "one\ntwo "},
		{name: "TJ kerning gap", content: "BT [(Ja) 10 (va) -300 (Go)] TJ ET", want: "Java Go "},
		{name: "hex string", content: "BT <476F> Tj ET", want: "Go "},
		{name: "utf16 hex string", content: "BT <FEFF00E9> Tj ET", want: "é "},
		{name: "Tm line change", content: "BT 1 0 0 1 72 700 Tm (a) Tj 1 0 0 1 72 680 Tm (b) Tj ET", want: "a\nb "},
		{name: "comments ignored", content: "% (hidden) Tj\nBT (shown) Tj ET", want: "shown "},
		{name: "nested parens", content: "BT (f(x)) Tj ET", want: "f(x) "},
		{name: "inline image skipped", content: "BI /W 1 /H 1 ID \x00(x)\x01 EI BT (after) Tj ET", want: "after "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentStreamText([]byte(tt.content)); got != tt.want {
				t.Errorf("contentStreamText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePDFBadPageFailsDocument(t *testing.T) {
	data := buildTestPDFStreams([]testStream{
		{content: "BT\n/F1 12 Tf\n72 720 Td\n(Jane Doe) Tj\nET"},
		{content: "this is not zlib data", filter: "FlateDecode"},
		{content: "BT\n/F1 12 Tf\n72 720 Td\n(Python) Tj\nET"},
	})

	got, err := New().Normalize(context.Background(), types.FileInput("cv.pdf", types.KindPDF, data))
	if err == nil {
		t.Fatalf("Normalize() = %q, want error for unreadable page", got.Text)
	}
	appErr, ok := errors.As(err)
	if !ok || appErr.Type != errors.ErrorTypeExtraction {
		t.Fatalf("Normalize() error = %v, want extraction error", err)
	}
	if appErr.Code != errors.ErrCodeDocumentCorrupt && appErr.Code != errors.ErrCodePageExtractionFailed {
		t.Errorf("code = %s, want a document or page failure", appErr.Code)
	}
	if got.Text != "" || len(got.Lines) != 0 {
		t.Errorf("partial text returned: %q", got.Text)
	}
}

func TestPageErrorCarriesPage(t *testing.T) {
	err := pageError(3, bytes.ErrTooLarge)
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodePageExtractionFailed {
		t.Fatalf("pageError() = %v", err)
	}
	if appErr.Context["page"] != 3 {
		t.Errorf("page context = %v, want 3", appErr.Context["page"])
	}
}

// --- test document builders ---

type testStream struct {
	content string
	filter  string
}

// buildTestPDF creates a valid PDF with one page per content stream and
// proper xref offsets.
func buildTestPDF(contents ...string) []byte {
	streams := make([]testStream, len(contents))
	for i, c := range contents {
		streams[i] = testStream{content: c}
	}
	return buildTestPDFStreams(streams)
}

// buildTestPDFStreams is buildTestPDF with an optional /Filter per stream.
// The content is written as is, so a filtered stream can carry bad data.
func buildTestPDFStreams(streams []testStream) []byte {
	pages := len(streams)
	// objects: 1 catalog, 2 pages, 3 font, then page/content pairs
	total := 3 + 2*pages
	offsets := make([]int, total+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := make([]string, pages)
	for i := range streams {
		kids[i] = strconv.Itoa(4+2*i) + " 0 R"
	}
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [" + strings.Join(kids, " ") + "] /Count " + strconv.Itoa(pages) + " >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, stream := range streams {
		pageObj := 4 + 2*i
		contentObj := pageObj + 1

		offsets[pageObj] = b.Len()
		b.WriteString(strconv.Itoa(pageObj) + " 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents " +
			strconv.Itoa(contentObj) + " 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n")

		offsets[contentObj] = b.Len()
		dict := "/Length " + strconv.Itoa(len(stream.content))
		if stream.filter != "" {
			dict += " /Filter /" + stream.filter
		}
		b.WriteString(strconv.Itoa(contentObj) + " 0 obj\n<< " + dict + " >>\nstream\n")
		b.WriteString(stream.content)
		b.WriteString("\nendstream\nendobj\n")
	}

	xrefOffset := b.Len()
	b.WriteString("xref\n0 " + strconv.Itoa(total+1) + "\n")
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		b.WriteString(padOffset(offsets[i]))
		b.WriteString(" 00000 n \n")
	}
	b.WriteString("trailer\n<< /Size " + strconv.Itoa(total+1) + " /Root 1 0 R >>\nstartxref\n")
	b.WriteString(strconv.Itoa(xrefOffset))
	b.WriteString("\n%%EOF\n")

	return []byte(b.String())
}

func randomBytes(n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(42)).Read(data)
	return data
}

func padOffset(n int) string {
	s := strconv.Itoa(n)
	return strings.Repeat("0", 10-len(s)) + s
}

// buildTestDOCX zips a minimal word/document.xml with one paragraph per
// entry. Entries are inserted as raw run XML.
func buildTestDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
